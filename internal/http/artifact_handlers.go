package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"csf-data/internal/service"
)

// ArtifactHandler 证据目录接口
type ArtifactHandler struct {
	artifacts *service.ArtifactService
	logger    *zap.Logger
}

func NewArtifactHandler(artifacts *service.ArtifactService, logger *zap.Logger) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts, logger: logger}
}

// List GET /api/v1/artifacts?search=
func (h *ArtifactHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.artifacts.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("List artifacts failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list artifacts"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// Create POST /api/v1/artifacts
// 关联的 subcategory 行会同步获得该证据名称
func (h *ArtifactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ArtifactRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	a, err := h.artifacts.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("Create artifact failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// Update PUT /api/v1/artifacts/{id}
func (h *ArtifactHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req service.ArtifactRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	a, err := h.artifacts.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("artifact %s not found", id)))
			return
		}
		h.logger.Error("Update artifact failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to update artifact"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// Merge POST /api/v1/artifacts/{id}/merge
// 将 source_id 合并入目标证据，行引用改用目标名称
func (h *ArtifactHandler) Merge(w http.ResponseWriter, r *http.Request, id string) {
	var req MergeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusOK, Fail(validationMessage(err)))
		return
	}
	a, err := h.artifacts.Merge(r.Context(), id, req.SourceID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("Merge artifact failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// Delete DELETE /api/v1/artifacts/{id}
// 同时从所有评估行的 linked_artifact_names 中移除该证据
func (h *ArtifactHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.artifacts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("artifact %s not found", id)))
			return
		}
		h.logger.Error("Delete artifact failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to delete artifact"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": id}))
}
