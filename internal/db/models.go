package db

import (
	"time"
)

const (
	JobStatusPending = "pending"
	JobStatusPrinted = "printed"
	JobStatusFailed  = "failed"
)

// PrintJob is the persistent queue record. print_data holds the serialized
// receipt snapshot; jobs are never deleted by this service.
type PrintJob struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	PrintData    string     `json:"print_data"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// Terminal reports whether the job may never be processed again.
func (j *PrintJob) Terminal() bool {
	return j.Status == JobStatusPrinted || j.Status == JobStatusFailed
}

// Order is the originating order record. print_status and print_attempts are
// mirror fields maintained by the queue processor for staff-facing surfaces.
type Order struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Payload       string    `json:"payload"`
	PrintStatus   string    `json:"print_status,omitempty"`
	PrintAttempts int       `json:"print_attempts"`
	CreatedAt     time.Time `json:"created_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobCounts struct {
	Pending int `json:"pending"`
	Printed int `json:"printed"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}
