package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"csf-data/internal/service"
)

// ProfileHandler 档案级操作：导入、导出、仪表盘、评分图例
type ProfileHandler struct {
	profile *service.ProfileService
	logger  *zap.Logger
}

func NewProfileHandler(profile *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profile: profile, logger: logger}
}

// Import POST /api/v1/profile/import
// multipart 表单字段 "file"，按扩展名识别 csv / xlsx
func (h *ProfileHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB max
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file not found in request"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to read file"))
		return
	}

	format := "csv"
	if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		format = "xlsx"
	}

	summary, err := h.profile.Import(r.Context(), data, format)
	if err != nil {
		h.logger.Error("Import failed", zap.String("filename", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("import failed: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// Export GET /api/v1/profile/export?format=csv|xlsx
func (h *ProfileHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	var data []byte
	var filename, contentType string
	var err error
	if format == "xlsx" {
		data, filename, err = h.profile.ExportXLSX(r.Context())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	} else {
		data, filename, err = h.profile.ExportCSV(r.Context())
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.logger.Error("Export failed", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Dashboard GET /api/v1/dashboard
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profile.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Dashboard failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to compute dashboard"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// Legend GET /api/v1/legend
func (h *ProfileHandler) Legend(w http.ResponseWriter, r *http.Request) {
	legend, err := h.profile.Legend(r.Context())
	if err != nil {
		h.logger.Error("Legend failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load legend"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(legend))
}
