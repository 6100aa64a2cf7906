package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"csf-data/internal/service"
)

// PeopleHandler 人员目录接口
type PeopleHandler struct {
	people *service.PeopleService
	logger *zap.Logger
}

func NewPeopleHandler(people *service.PeopleService, logger *zap.Logger) *PeopleHandler {
	return &PeopleHandler{people: people, logger: logger}
}

// List GET /api/v1/people?search=
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.people.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("List people failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list people"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(people))
}

// Create POST /api/v1/people
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.PersonRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	p, err := h.people.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("Create person failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to create person"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// Update PUT /api/v1/people/{id}
func (h *PeopleHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req service.PersonRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	p, err := h.people.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("person %s not found", id)))
			return
		}
		h.logger.Error("Update person failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to update person"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// MergeRequest names the entry to fold into the path's target.
type MergeRequest struct {
	SourceID string `json:"source_id" validate:"required"`
}

// Merge POST /api/v1/people/{id}/merge
// 将 source_id 合并入目标条目，行引用全部改指目标
func (h *PeopleHandler) Merge(w http.ResponseWriter, r *http.Request, id string) {
	var req MergeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	p, err := h.people.Merge(r.Context(), id, req.SourceID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("Merge person failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// Delete DELETE /api/v1/people/{id}
// 删除后相关评估行的 owner/auditor/stakeholder 引用会被清空
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.people.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("person %s not found", id)))
			return
		}
		h.logger.Error("Delete person failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to delete person"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": id}))
}
