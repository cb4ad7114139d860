package domain

// Embedding status of a job posting
const (
	EmbeddingStatusPending    = "PENDING"
	EmbeddingStatusProcessing = "PROCESSING"
	EmbeddingStatusReady      = "READY"
	EmbeddingStatusFailed     = "FAILED"
)
