// Package id provides unique identifier generation for processing jobs.
package id

import "github.com/google/uuid"

// Prefix starts every job ID.
const Prefix = "job-"

// Generate creates a new unique job ID. IDs are safe to use as file and
// directory names.
// Example: job-9b2f6a0e-5c1d-4f57-8a43-1f0f6f3f6c1b
func Generate() string {
	return Prefix + uuid.NewString()
}
