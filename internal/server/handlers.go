package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"indesign-pdf-service/internal/archive"
	"indesign-pdf-service/internal/convert"
	"indesign-pdf-service/internal/domain"
	"indesign-pdf-service/internal/jobs"
)

// categoryInternal covers infrastructure failures outside the conversion
// error taxonomy (temp file handling, response streaming).
const categoryInternal = "internal_error"

// handleHealth returns a static readiness acknowledgment. It deliberately
// does not check InDesign availability; use the diagnostics endpoint.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "indesign-pdf-service",
	})
}

// handleDiagnostics reruns the startup checks and returns the report.
func (a *App) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	report := a.checker.Run(a.cfg.Storage.UploadDir, a.cfg.Storage.ScratchDir)
	writeJSON(w, http.StatusOK, report)
}

// handleCurrentJobs returns tracked jobs, most recent first.
func (a *App) handleCurrentJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.jobs.Recent())
}

// handleJobEvents returns events with sequence greater than ?since=N.
func (a *App) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(convert.KindValidation), "since must be an integer")
			return
		}
		since = parsed
	}
	writeJSON(w, http.StatusOK, a.events.Since(since))
}

// handleConvert accepts a zip archive containing an InDesign document,
// converts it to PDF, and returns the PDF as a download. The work
// directory for the request is removed on every exit path.
func (a *App) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxBytes := a.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, string(convert.KindValidation),
			fmt.Sprintf("archive too large (limit %d MB) or invalid multipart form", a.cfg.Limits.MaxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(convert.KindValidation), "missing file field in multipart form")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest, string(convert.KindValidation),
			fmt.Sprintf("unsupported archive extension %q, expected .zip", filepath.Ext(header.Filename)))
		return
	}

	jobID := uuid.New().String()
	logger := a.logger.With().Str("job_id", jobID).Str("archive", header.Filename).Logger()

	if active := a.jobs.Begin(jobID, header.Filename); active > 0 {
		logger.Warn().Int("active", active).
			Msg("Conversion already in flight; InDesign may reject concurrent automation")
	}
	a.publishStatus(jobID, domain.JobStatusExtracting, "Upload accepted")

	workDir := filepath.Join(a.cfg.Storage.UploadDir, jobID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Error().Err(err).Msg("Failed to remove work directory")
		}
	}()

	archivePath := filepath.Join(workDir, filepath.Base(header.Filename))
	if err := saveUpload(archivePath, file); err != nil {
		a.failJob(w, logger, jobID, http.StatusInternalServerError, categoryInternal,
			fmt.Sprintf("store upload: %v", err))
		return
	}

	extractDir := filepath.Join(workDir, "extracted")
	if err := archive.Extract(archivePath, extractDir); err != nil {
		a.failJob(w, logger, jobID, http.StatusBadRequest, string(convert.KindValidation),
			fmt.Sprintf("extract archive: %v", err))
		return
	}

	docPath, err := archive.LocateDocument(extractDir)
	if err != nil {
		if errors.Is(err, archive.ErrNoDocument) {
			a.failJob(w, logger, jobID, http.StatusBadRequest, string(convert.KindNotFound),
				"No InDesign file (.indd or .idml) found in archive")
			return
		}
		a.failJob(w, logger, jobID, http.StatusInternalServerError, categoryInternal,
			fmt.Sprintf("scan extracted archive: %v", err))
		return
	}
	logger.Info().Str("document", filepath.Base(docPath)).Msg("Located InDesign document")

	if err := a.jobs.Transition(jobID, domain.JobStatusConverting); err == nil {
		a.publishStatus(jobID, domain.JobStatusConverting, "Running InDesign export")
	}

	result, err := a.exporter.Export(r.Context(), convert.Request{
		InputPath: docPath,
		OutputDir: filepath.Join(workDir, "out"),
		OnStage: func(stage string) {
			logger.Info().Str("stage", stage).Msg("Conversion stage")
		},
		OnLog: func(log convert.ProcessLog) {
			a.events.Publish(jobs.Event{
				JobID:    jobID,
				Type:     jobs.EventTypeLog,
				Message:  "InDesign process finished",
				Command:  log.Command,
				ExitCode: log.ExitCode,
			})
		},
	})
	if err != nil {
		kind := convert.KindOf(err)
		a.failJob(w, logger, jobID, statusForKind(kind), string(kind), err.Error())
		return
	}

	a.jobs.Finish(jobID, domain.JobStatusDone)
	a.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeResult,
		Status:  domain.JobStatusDone,
		Message: "PDF exported",
		PDFPath: result.PDFPath,
	})
	logger.Info().Str("pdf", filepath.Base(result.PDFPath)).Msg("Conversion succeeded")

	a.servePDF(w, logger, result.PDFPath)
}

// servePDF streams the produced artifact as a download with a filename
// derived from the document's base name.
func (a *App) servePDF(w http.ResponseWriter, logger zerolog.Logger, pdfPath string) {
	f, err := os.Open(pdfPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open produced PDF")
		writeError(w, http.StatusInternalServerError, categoryInternal, "failed to open produced PDF")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(pdfPath)))
	if _, err := io.Copy(w, f); err != nil {
		logger.Error().Err(err).Msg("Failed to stream PDF response")
	}
}

// failJob records the failure in the tracker and event feed, then writes
// the JSON error response.
func (a *App) failJob(w http.ResponseWriter, logger zerolog.Logger, jobID string, status int, category, detail string) {
	a.jobs.Finish(jobID, domain.JobStatusFailed)
	a.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: detail,
	})
	logger.Error().Str("category", category).Msg(detail)
	writeError(w, status, category, detail)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// statusForKind maps conversion error categories to HTTP status codes.
func statusForKind(kind convert.ErrorKind) int {
	switch kind {
	case convert.KindValidation, convert.KindNotFound:
		return http.StatusBadRequest
	case convert.KindLaunch:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the JSON error body with a machine-stable category and
// a human-readable detail.
func writeError(w http.ResponseWriter, status int, category, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   category,
		"message": detail,
	})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// saveUpload writes the uploaded archive into the request work directory.
func saveUpload(path string, src multipart.File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
