// Package server provides the HTTP server for the audio splice API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/maauso/audiosplice-api/internal/audio"

// SpliceForm holds the text fields of a splice multipart request.
// Missing numbers parse as zero and are rejected by the processor with its
// own error kind.
type SpliceForm struct {
	// SpliceDuration is the clip length in seconds.
	SpliceDuration string `form:"spliceDuration" validate:"omitempty,numeric"`
	// SpliceCount is the number of clips to cut.
	SpliceCount string `form:"spliceCount" validate:"omitempty,numeric"`
	// Reverse reverses each clip when true.
	Reverse string `form:"reverse" validate:"omitempty,boolean"`
	// PushToS3 uploads the archive instead of returning it.
	PushToS3 string `form:"pushToS3" validate:"omitempty,boolean"`
}

// NormalizeForm holds the text fields of a normalize multipart request.
type NormalizeForm struct {
	// TargetLevel is the desired peak in (0, 1].
	TargetLevel string `form:"targetLevel" validate:"omitempty,numeric"`
	// ApplyToSplices normalizes random clips instead of the whole file.
	ApplyToSplices string `form:"applyToSplices" validate:"omitempty,boolean"`
	// PushToS3 uploads the archive instead of returning it.
	PushToS3 string `form:"pushToS3" validate:"omitempty,boolean"`
}

// ProcessForm holds the text fields of a generic process request.
type ProcessForm struct {
	// Config is the tagged processor config, e.g. {"type":"splice",...}.
	Config string `form:"config" validate:"required,json"`
	// PushToS3 uploads the archive instead of returning it.
	PushToS3 string `form:"pushToS3" validate:"omitempty,boolean"`
}

// ProcessAudioResponse is returned when the archive was pushed to S3.
type ProcessAudioResponse struct {
	// Success is true when processing completed.
	Success bool `json:"success"`
	// Result lists the produced files and run metadata.
	Result *audio.Result `json:"result,omitempty"`
	// ArchiveURL is the S3 URL of the uploaded archive.
	ArchiveURL string `json:"archive_url,omitempty"`
	// Error contains the failure message, if any.
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// ErrorType is the machine-matchable error kind.
	ErrorType string `json:"error_type"`
	// Timestamp is when the error occurred, in RFC 3339.
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Version is the running build version.
	Version string `json:"version"`
	// UptimeSeconds is the time since the handlers were created.
	UptimeSeconds int64 `json:"uptime_seconds"`
}
