// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for audit event subscriber channels
	EventChannelBuffer = 100

	// RecentEventsLimit is the default number of audit events returned by listings
	RecentEventsLimit = 50
)

// File upload constants
const (
	// MaxUploadSize is the maximum face image upload size in bytes (10MB)
	MaxUploadSize = 10 << 20
)
