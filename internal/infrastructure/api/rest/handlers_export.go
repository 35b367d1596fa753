package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/smslabel/internal/export"
	"github.com/smilemakc/smslabel/internal/store"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// ExportHandlers writes the full labeled corpus in the two formats
// external collaborators consume.
type ExportHandlers struct {
	store *store.Store
}

func NewExportHandlers(st *store.Store) *ExportHandlers {
	return &ExportHandlers{store: st}
}

// collectLabels walks messages_list in pages, fetching each row's label,
// so export never depends on an unbounded single query.
func (h *ExportHandlers) collectLabels(c *gin.Context) ([]taxonomy.Label, error) {
	const pageSize = 500
	var labels []taxonomy.Label
	offset := 0
	for {
		result, err := h.store.MessagesList(c.Request.Context(), store.ListFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, row := range result.Rows {
			if !row.HasLabel {
				continue
			}
			label, err := h.store.GetLabel(c.Request.Context(), row.Message.ID)
			if err != nil {
				continue
			}
			labels = append(labels, label)
		}
		offset += pageSize
		if offset >= int(result.Total) || len(result.Rows) == 0 {
			break
		}
	}
	return labels, nil
}

// CSV handles GET /export.csv.
func (h *ExportHandlers) CSV(c *gin.Context) {
	labels, err := h.collectLabels(c)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="labels.csv"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, labels); err != nil {
		respondAPIErrorWithRequestID(c, err)
	}
}

// JSONL handles GET /export.jsonl.
func (h *ExportHandlers) JSONL(c *gin.Context) {
	labels, err := h.collectLabels(c)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	c.Header("Content-Type", "application/x-ndjson; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="labels.jsonl"`)
	c.Status(http.StatusOK)
	if err := export.WriteJSONL(c.Writer, labels); err != nil {
		respondAPIErrorWithRequestID(c, err)
	}
}
