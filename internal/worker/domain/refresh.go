package domain

import (
	"database/sql"
	"time"
)

// EmbeddingJob is the job posting content claimed for an embedding refresh
type EmbeddingJob struct {
	ID                   int64        `db:"id"`
	Title                string       `db:"title"`
	Company              string       `db:"company"`
	Description          string       `db:"description"`
	Requirements         string       `db:"requirements"`
	RequiredSkills       string       `db:"required_skills"`
	ExperienceLevel      string       `db:"experience_level"`
	EmbeddingRefreshedAt sql.NullTime `db:"embedding_refreshed_at"`
}

// Acknowledger settles a broker delivery
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// JobMessage is a parsed refresh request taken off the queue
type JobMessage struct {
	JobID       int64
	RequestedAt time.Time
	DeliveryTag uint64
	Redelivered bool
	Delivery    Acknowledger
}
