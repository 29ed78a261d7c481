package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

type Job struct {
	ID         uuid.UUID `json:"id"`
	EmployerID uuid.UUID `json:"employer_id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	Skills     []string  `json:"skills"`
	HourlyRate float64   `json:"hourly_rate,omitempty"`
	Status     JobStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
