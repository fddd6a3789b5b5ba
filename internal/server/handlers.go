package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/apperrors"
	"github.com/KaramelBytes/csvlens/internal/ingest"
)

// multipart parts above this size spill to temp files
const multipartMemory = 32 << 20

// UploadResponse is returned by POST /csv/upload.
type UploadResponse struct {
	DatasetID string           `json:"dataset_id"`
	Filename  string           `json:"filename"`
	RowCount  int              `json:"row_count"`
	Columns   []string         `json:"columns"`
	Ingest    *ingest.Report   `json:"ingest"`
	Analysis  *analysis.Result `json:"analysis"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("Store ping failed", zap.Error(err))
			_ = WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			_ = ErrorResponse(w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("Upload exceeds %d bytes", s.maxUpload))
			return
		}
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_file", `Form field "file" is required`)
		return
	}
	defer file.Close()

	if !ingest.Supported(header.Filename) {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_file_type", "Only CSV files are supported")
		return
	}

	ds, rep, err := ingest.Read(r.Context(), file, s.ingestOpts)
	if err != nil {
		s.logger.Info("Unreadable upload", zap.String("filename", header.Filename), zap.Error(err))
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "unreadable_file", fmt.Sprintf("Could not parse CSV: %v", err))
		return
	}
	res, err := analysis.Analyze(r.Context(), ds, s.analyzeOpts)
	if err != nil {
		s.logger.Error("Analysis failed", zap.String("filename", header.Filename), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "analysis_failed", "Analysis failed")
		return
	}

	resp := UploadResponse{
		Filename: header.Filename,
		RowCount: res.RowCount,
		Columns:  res.Columns,
		Ingest:   rep,
		Analysis: res,
	}
	if s.store != nil {
		id, err := s.store.Save(r.Context(), header.Filename, res)
		if err != nil {
			s.logger.Error("Failed to save dataset", zap.String("filename", header.Filename), zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "storage_error", "Failed to save analysis")
			return
		}
		resp.DatasetID = id
	}
	s.logger.Info("Analyzed upload",
		zap.String("dataset_id", resp.DatasetID),
		zap.String("filename", header.Filename),
		zap.Int("rows", res.RowCount),
		zap.Int("columns", len(res.Columns)),
		zap.String("strategy", rep.Strategy),
	)
	_ = WriteJSON(w, http.StatusOK, resp)
}

// multipart flattens some reader errors to text, so the message is checked too
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "store_disabled", "No dataset store is configured")
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Dataset not found")
		return
	}
	s.logger.Error("Store operation failed", zap.Error(err))
	_ = ErrorResponse(w, http.StatusInternalServerError, "storage_error", "Store operation failed")
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"datasets": list})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
