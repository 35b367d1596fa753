package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/batch"
	"github.com/smilemakc/smslabel/internal/store"
)

// BatchHandlers exposes the batch executor's lifecycle over HTTP.
type BatchHandlers struct {
	executor *batch.Executor
}

func NewBatchHandlers(executor *batch.Executor) *BatchHandlers {
	return &BatchHandlers{executor: executor}
}

// startBatchRequest is the validated wire shape of POST /batch/start.
// Zero values fall back to the batch package's own normalization, not to
// struct-tag defaults, so every field is optional here.
type startBatchRequest struct {
	Mode        string `json:"mode" binding:"omitempty,oneof=unlabeled needs_review all"`
	Concurrency int    `json:"concurrency" binding:"omitempty,min=1,max=8"`
	TimeoutMS   int    `json:"timeout_ms" binding:"omitempty,min=1000"`
	MaxRetries  int    `json:"max_retries" binding:"omitempty,min=0,max=10"`
	IDMin       *int64 `json:"id_min" binding:"omitempty,min=1"`
	IDMax       *int64 `json:"id_max" binding:"omitempty,min=1"`
}

func (r startBatchRequest) toOptions() batch.Options {
	mode := store.CandidateMode(r.Mode)
	if mode == "" {
		mode = store.ModeUnlabeled
	}
	return batch.Options{
		Mode:        mode,
		Concurrency: r.Concurrency,
		TimeoutMS:   r.TimeoutMS,
		MaxRetries:  r.MaxRetries,
		IDMin:       r.IDMin,
		IDMax:       r.IDMax,
	}
}

// Start handles POST /batch/start. Progress is not streamed over this
// request; callers poll GET /batch/status.
func (h *BatchHandlers) Start(c *gin.Context) {
	var req startBatchRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	// The batch run outlives this request, so it must not inherit the
	// request's context: net/http cancels that context the instant this
	// handler returns, which would cancel the run before it dispatches.
	if err := h.executor.Start(context.Background(), req.toOptions(), nil); err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusAccepted, h.executor.Status())
}

// Stop handles POST /batch/stop.
func (h *BatchHandlers) Stop(c *gin.Context) {
	h.executor.Stop()
	respondJSON(c, http.StatusOK, h.executor.Status())
}

// Status handles GET /batch/status.
func (h *BatchHandlers) Status(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.executor.Status())
}

// RetryFailed handles POST /batch/retry-failed.
func (h *BatchHandlers) RetryFailed(c *gin.Context) {
	if err := h.executor.RetryFailed(context.Background(), nil); err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusAccepted, h.executor.Status())
}
