package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/batch"
	"github.com/smilemakc/smslabel/internal/store"
)

// StatusHandlers implements the aggregate /status endpoint supplemented
// from the original desktop app's status bar, plus a liveness probe.
type StatusHandlers struct {
	store         *store.Store
	executor      *batch.Executor
	buildProvider batch.ProviderBuilder
}

func NewStatusHandlers(st *store.Store, executor *batch.Executor, buildProvider batch.ProviderBuilder) *StatusHandlers {
	return &StatusHandlers{store: st, executor: executor, buildProvider: buildProvider}
}

type dbStatus struct {
	OK            bool  `json:"ok"`
	MessagesCount int64 `json:"messages_count"`
	MessagesMaxID int64 `json:"messages_max_id"`
}

type providerStatus struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
}

// statusSnapshot mirrors the original Tauri app's StatusSnapshot, minus
// the self-test field the spec's Non-goals exclude.
type statusSnapshot struct {
	DB       dbStatus       `json:"db"`
	Provider providerStatus `json:"provider"`
	Batch    batch.Progress `json:"batch"`
}

// Status handles GET /status: one aggregate poll instead of three.
func (h *StatusHandlers) Status(c *gin.Context) {
	ctx := c.Request.Context()

	snap := statusSnapshot{Batch: h.executor.Status()}

	stats, err := h.store.GetStats(ctx)
	if err != nil {
		snap.DB = dbStatus{OK: false}
	} else {
		snap.DB = dbStatus{OK: true, MessagesCount: stats.MessagesCount, MessagesMaxID: stats.MessagesMaxID}
	}

	prov, buildErr := h.buildProvider()
	if buildErr != nil || prov == nil {
		snap.Provider = providerStatus{OK: false, Message: "provider unavailable"}
	} else {
		health := prov.HealthCheck(ctx)
		snap.Provider = providerStatus{OK: health.OK, Message: health.Message, ModelVersion: health.ModelVersion}
		if health.ModelVersion == "" {
			snap.Provider.ModelVersion = prov.ModelVersion()
		}
	}

	respondJSON(c, http.StatusOK, snap)
}

// Healthz handles GET /healthz, a bare liveness probe independent of
// provider/db health.
func (h *StatusHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
