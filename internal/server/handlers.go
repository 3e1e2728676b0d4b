package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/audiosplice-api/internal/audio"
	"github.com/maauso/audiosplice-api/internal/job"
)

// Error types reported for failures that happen before processing starts.
const (
	errTypeValidation = "ValidationError"
	errTypeTooLarge   = "PayloadTooLarge"
	errTypeInternal   = "InternalError"
)

// defaultMaxUploadBytes caps request bodies when no limit is configured.
const defaultMaxUploadBytes int64 = 50 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *job.ProcessAudioService
	validator      *validator.Validate
	logger         *slog.Logger
	version        string
	maxUploadBytes int64
	started        time.Time
	now            func() time.Time
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) HandlerOption {
	return func(h *Handlers) {
		h.version = version
	}
}

// WithMaxUploadBytes limits the size of request bodies. Non-positive values
// are ignored.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithClock replaces the time source used for uptime and timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.ProcessAudioService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		validator:      validator.New(),
		logger:         logger,
		version:        "dev",
		maxUploadBytes: defaultMaxUploadBytes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.now()
	return h
}

// Health handles GET /health and GET /api/v1/health requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(h.now().Sub(h.started).Seconds()),
	})
}

// SpliceMultipart handles POST /api/v1/audio/splice/multipart requests.
func (h *Handlers) SpliceMultipart(w http.ResponseWriter, r *http.Request) {
	file, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	form := SpliceForm{
		SpliceDuration: r.FormValue("spliceDuration"),
		SpliceCount:    r.FormValue("spliceCount"),
		Reverse:        r.FormValue("reverse"),
		PushToS3:       r.FormValue("pushToS3"),
	}
	if !h.validate(w, form) {
		return
	}

	count, err := parseInt(form.SpliceCount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "spliceCount must be an integer", string(audio.KindInvalidSpliceCount))
		return
	}
	cfg := audio.SpliceConfig{
		Duration: parseFloat(form.SpliceDuration),
		Count:    count,
		Reverse:  parseBool(form.Reverse),
	}
	h.process(w, r, file, cfg, parseBool(form.PushToS3))
}

// NormalizeMultipart handles POST /api/v1/audio/normalize/multipart requests.
func (h *Handlers) NormalizeMultipart(w http.ResponseWriter, r *http.Request) {
	file, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	form := NormalizeForm{
		TargetLevel:    r.FormValue("targetLevel"),
		ApplyToSplices: r.FormValue("applyToSplices"),
		PushToS3:       r.FormValue("pushToS3"),
	}
	if !h.validate(w, form) {
		return
	}

	cfg := audio.NormalizeConfig{
		TargetLevel:    parseFloat(form.TargetLevel),
		ApplyToSplices: parseBool(form.ApplyToSplices),
	}
	h.process(w, r, file, cfg, parseBool(form.PushToS3))
}

// ProcessMultipart handles POST /api/v1/audio/process requests, where the
// processor is selected by the tagged JSON in the config field.
func (h *Handlers) ProcessMultipart(w http.ResponseWriter, r *http.Request) {
	file, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	form := ProcessForm{
		Config:   r.FormValue("config"),
		PushToS3: r.FormValue("pushToS3"),
	}
	if !h.validate(w, form) {
		return
	}

	cfg, err := audio.ParseConfig([]byte(form.Config))
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	h.process(w, r, file, cfg, parseBool(form.PushToS3))
}

// readUpload parses the multipart body and opens the "file" part. On failure
// it writes the error response and returns false.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), errTypeTooLarge)
			return nil, false
		}
		h.logger.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		h.writeError(w, http.StatusBadRequest, "invalid multipart form", errTypeValidation)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file is required", errTypeValidation)
		return nil, false
	}
	return file, true
}

func (h *Handlers) validate(w http.ResponseWriter, form any) bool {
	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusBadRequest, err.Error(), errTypeValidation)
		return false
	}
	return true
}

// process runs the job, answers with the archive or its S3 location, and
// always cleans up the request's files.
func (h *Handlers) process(w http.ResponseWriter, r *http.Request, file io.Reader, cfg audio.Config, pushToS3 bool) {
	ctx := r.Context()
	out, err := h.service.Process(ctx, job.ProcessAudioInput{
		Source:   file,
		Config:   cfg,
		PushToS3: pushToS3,
	})
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	defer h.service.Cleanup(context.WithoutCancel(ctx), out.InputPath, out.Result.Files, out.ArchivePath)

	if pushToS3 {
		writeJSON(w, http.StatusOK, ProcessAudioResponse{
			Success:    true,
			Result:     publicResult(out.Result),
			ArchiveURL: out.ArchiveURL,
		})
		return
	}

	archive, err := h.service.OpenArchive(ctx, out)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	defer func() { _ = archive.Close() }()

	meta := out.Result.Metadata
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.ProcessorType+"_"+out.JobID+".zip"))
	w.Header().Set("X-Processor-Type", meta.ProcessorType)
	w.Header().Set("X-Output-Count", strconv.Itoa(len(out.Result.Files)))
	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(meta.ProcessingTimeMs, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, archive); err != nil {
		h.logger.Warn("failed to stream archive",
			slog.String("job_id", out.JobID),
			slog.String("error", err.Error()),
		)
	}
}

// publicResult strips local directories from output paths so responses only
// expose the names used inside the archive.
func publicResult(r *audio.Result) *audio.Result {
	files := make([]string, len(r.Files))
	for i, f := range r.Files {
		files[i] = filepath.Base(f)
	}
	return &audio.Result{Files: files, Metadata: r.Metadata}
}

// statusFor maps a processing error to its HTTP status.
func statusFor(err error) int {
	switch {
	case audio.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, audio.ErrFileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeProcessError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	kind := string(audio.KindOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error("audio processing failed",
			slog.String("error_type", kind),
			slog.String("error", err.Error()),
		)
	}
	h.writeError(w, status, err.Error(), kind)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message, errorType string) {
	writeError(w, status, message, errorType, h.now())
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, errorType string, at time.Time) {
	writeJSON(w, status, ErrorResponse{
		Error:     message,
		ErrorType: errorType,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}
