package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/store"
)

// MessageHandlers exposes the message/label read surface.
type MessageHandlers struct {
	store *store.Store
}

func NewMessageHandlers(st *store.Store) *MessageHandlers {
	return &MessageHandlers{store: st}
}

// messageView is the JSON projection of a joined message+label row.
type messageView struct {
	ID                  int64   `json:"id"`
	Content             string  `json:"content"`
	Sender              string  `json:"sender"`
	Phone               string  `json:"phone"`
	Source              string  `json:"source"`
	HasURL              bool    `json:"has_url"`
	HasAmount           bool    `json:"has_amount"`
	HasVerificationCode bool    `json:"has_verification_code"`
	HasLabel            bool    `json:"has_label"`
	Industry            string  `json:"industry,omitempty"`
	Type                string  `json:"type,omitempty"`
	Confidence          float64 `json:"confidence,omitempty"`
	NeedsReview         bool    `json:"needs_review"`
}

func toMessageView(row store.MessageRow) messageView {
	return messageView{
		ID:                  row.Message.ID,
		Content:             row.Message.Content,
		Sender:              row.Message.Sender,
		Phone:               row.Message.Phone,
		Source:              row.Message.Source,
		HasURL:              row.Message.HasURL,
		HasAmount:           row.Message.HasAmount,
		HasVerificationCode: row.Message.HasVerificationCode,
		HasLabel:            row.HasLabel,
		Industry:            row.Industry,
		Type:                row.Type,
		Confidence:          row.Confidence,
		NeedsReview:         row.NeedsReview,
	}
}

// List handles GET /messages with the filters messages_list supports.
func (h *MessageHandlers) List(c *gin.Context) {
	f := store.ListFilter{
		Industry: getQuery(c, "industry", ""),
		Type:     getQuery(c, "type", ""),
		Query:    getQuery(c, "q", ""),
		Limit:    getQueryInt(c, "limit", 50),
		Offset:   getQueryInt(c, "offset", 0),
	}
	if v := c.Query("needs_review"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			f.NeedsReview = &b
		}
	}
	if v := c.Query("has_url"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			f.HasURL = &b
		}
	}
	if v := c.Query("has_amount"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			f.HasAmount = &b
		}
	}
	if v := c.Query("has_verification_code"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			f.HasVerificationCode = &b
		}
	}
	if v := c.Query("min_confidence"); v != "" {
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinConfidence = &fv
		}
	}
	if v := c.Query("max_confidence"); v != "" {
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxConfidence = &fv
		}
	}

	result, err := h.store.MessagesList(c.Request.Context(), f)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	views := make([]messageView, 0, len(result.Rows))
	for _, row := range result.Rows {
		views = append(views, toMessageView(row))
	}
	respondList(c, http.StatusOK, views, int(result.Total), f.Limit, f.Offset)
}

// Get handles GET /messages/:id, returning the message and its label
// (if one exists).
func (h *MessageHandlers) Get(c *gin.Context) {
	idParam, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		respondAPIErrorWithRequestID(c, ErrInvalidID)
		return
	}

	msg, err := h.store.GetMessage(c.Request.Context(), id)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	label, err := h.store.GetLabel(c.Request.Context(), id)
	hasLabel := err == nil
	resp := gin.H{"message": msg, "has_label": hasLabel}
	if hasLabel {
		resp["label"] = label
	}
	respondJSON(c, http.StatusOK, resp)
}
