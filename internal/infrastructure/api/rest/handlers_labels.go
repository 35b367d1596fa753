package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/store"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// LabelHandlers exposes the manual-review write path.
type LabelHandlers struct {
	store *store.Store
}

func NewLabelHandlers(st *store.Store) *LabelHandlers {
	return &LabelHandlers{store: st}
}

// updateLabelRequest is the validated wire shape of PUT /labels/:id. Only
// industry and type are closed-enum fields; confidence is bounded to
// [0,1] and entities are free-form, matching the manual-review contract
// in the spec.
type updateLabelRequest struct {
	Industry    string            `json:"industry" binding:"required"`
	Type        string            `json:"type" binding:"required"`
	Confidence  float64           `json:"confidence" binding:"min=0,max=1"`
	NeedsReview bool              `json:"needs_review"`
	Entities    taxonomy.Entities `json:"entities"`
	Reasons     []string          `json:"reasons"`
	Operator    string            `json:"operator" binding:"required"`
}

// Update handles PUT /labels/:id, a manual review write.
func (h *LabelHandlers) Update(c *gin.Context) {
	idParam, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		respondAPIErrorWithRequestID(c, ErrInvalidID)
		return
	}

	var req updateLabelRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	newLabel := taxonomy.Label{
		MessageID:   id,
		Industry:    req.Industry,
		Type:        req.Type,
		Confidence:  req.Confidence,
		NeedsReview: req.NeedsReview,
		Entities:    req.Entities,
		Reasons:     req.Reasons,
	}

	if err := h.store.LabelUpdateManual(c.Request.Context(), id, req.Operator, newLabel); err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	label, err := h.store.GetLabel(c.Request.Context(), id)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, label)
}
