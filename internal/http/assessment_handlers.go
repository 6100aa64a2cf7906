package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"csf-data/internal/service"
)

// AssessmentHandler 评估行读写接口
type AssessmentHandler struct {
	profile *service.ProfileService
	logger  *zap.Logger
}

func NewAssessmentHandler(profile *service.ProfileService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{profile: profile, logger: logger}
}

// List GET /api/v1/assessments
// 支持 search / function / category_id / in_scope / page / page_size
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.RowFilter{
		Search:     q.Get("search"),
		Function:   q.Get("function"),
		CategoryID: q.Get("category_id"),
		InScope:    q.Get("in_scope"),
		Page:       parseInt(q.Get("page"), 1),
		PageSize:   parseInt(q.Get("page_size"), 50),
	}
	page, err := h.profile.ListRows(r.Context(), filter)
	if err != nil {
		h.logger.Error("ListRows failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list assessment rows"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(page))
}

// Get GET /api/v1/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	row, err := h.profile.GetRow(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("row %s not found", id)))
			return
		}
		h.logger.Error("GetRow failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load row"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(row))
}

// Update PUT /api/v1/assessments/{id}
// 部分更新：未提供的字段保持不变
func (h *AssessmentHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var patch service.RowPatch
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	row, err := h.profile.UpdateRow(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("row %s not found", id)))
			return
		}
		h.logger.Error("UpdateRow failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to update row"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(row))
}

// ToggleScope POST /api/v1/assessments/{id}/toggle-scope
func (h *AssessmentHandler) ToggleScope(w http.ResponseWriter, r *http.Request, id string) {
	row, err := h.profile.ToggleScope(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("row %s not found", id)))
			return
		}
		h.logger.Error("ToggleScope failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to toggle scope"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(row))
}

// ClearScope POST /api/v1/assessments/clear-scope
// 将所有行标记为范围外
func (h *AssessmentHandler) ClearScope(w http.ResponseWriter, r *http.Request) {
	changed, err := h.profile.ClearScope(r.Context())
	if err != nil {
		h.logger.Error("ClearScope failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to clear scope"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"changed": changed}))
}
