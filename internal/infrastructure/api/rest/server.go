package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/batch"
	"github.com/smilemakc/smslabel/internal/config"
	"github.com/smilemakc/smslabel/internal/infrastructure/logger"
	"github.com/smilemakc/smslabel/internal/store"
)

// Server is the HTTP control surface over the store and batch executor.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New builds the router and wires every handler group. The caller owns
// store/executor lifecycle; Server only serves HTTP on top of them.
func New(cfg *config.Config, log *logger.Logger, st *store.Store, executor *batch.Executor, buildProvider batch.ProviderBuilder) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	loggingMW := NewLoggingMiddleware(log)
	recoveryMW := NewRecoveryMiddleware(log)
	router.Use(recoveryMW.Recovery(), loggingMW.RequestLogger())

	batchH := NewBatchHandlers(executor)
	messagesH := NewMessageHandlers(st)
	labelsH := NewLabelHandlers(st)
	exportH := NewExportHandlers(st)
	statusH := NewStatusHandlers(st, executor, buildProvider)

	router.GET("/healthz", statusH.Healthz)
	router.GET("/status", statusH.Status)

	router.POST("/batch/start", batchH.Start)
	router.POST("/batch/stop", batchH.Stop)
	router.GET("/batch/status", batchH.Status)
	router.POST("/batch/retry-failed", batchH.RetryFailed)

	router.GET("/messages", messagesH.List)
	router.GET("/messages/:id", messagesH.Get)

	router.PUT("/labels/:id", labelsH.Update)

	router.GET("/export.csv", exportH.CSV)
	router.GET("/export.jsonl", exportH.JSONL)

	s := &Server{
		config: cfg,
		logger: log,
		router: router,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Router exposes the underlying gin engine, e.g. for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server starting", "host", s.config.Server.Host, "port", s.config.Server.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		if closeErr := s.httpServer.Close(); closeErr != nil {
			return closeErr
		}
		return err
	}
	return nil
}
