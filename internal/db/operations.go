package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrJobNotFound   = errors.New("print job not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrJobNotPending = errors.New("print job is not pending")
)

type JobStore struct {
	db *sql.DB
}

func NewJobStore(database *sql.DB) *JobStore {
	return &JobStore{db: database}
}

func (s *JobStore) CreateJob(ctx context.Context, j *PrintJob) error {
	_, err := s.db.ExecContext(ctx, InsertJob, j.ID, j.OrderID, j.PrintData)
	if err != nil {
		return fmt.Errorf("failed to create print job: %w", err)
	}
	j.Status = JobStatusPending
	j.Attempts = 0
	return nil
}

func (s *JobStore) GetJob(ctx context.Context, id string) (*PrintJob, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, GetJobByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return j, nil
}

// DueJobs returns pending jobs with attempts still below maxAttempts,
// oldest first.
func (s *JobStore) DueJobs(ctx context.Context, maxAttempts, limit int) ([]*PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, GetDueJobs, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *JobStore) PendingJobByOrder(ctx context.Context, orderID string) (*PrintJob, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, GetPendingJobByOrder, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get pending job for order %s: %w", orderID, err)
	}
	return j, nil
}

func (s *JobStore) ListJobs(ctx context.Context, status string, limit, offset int) ([]*PrintJob, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = s.db.QueryContext(ctx, ListJobsByStatus, status, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, ListJobs, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ClaimAttempt increments the attempt counter of a still-pending job.
// It fails with ErrJobNotPending when the job has reached a terminal status,
// which is what keeps the fast path and the batch processor from both
// printing a job that one of them already finished.
func (s *JobStore) ClaimAttempt(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, ClaimJobAttempt, id)
	if err != nil {
		return fmt.Errorf("failed to claim job attempt: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrJobNotPending
	}
	return nil
}

func (s *JobStore) MarkPrinted(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, MarkJobPrinted, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark job printed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrJobNotPending
	}
	return nil
}

func (s *JobStore) MarkFailed(ctx context.Context, id, errMsg string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, MarkJobFailed, errMsg, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrJobNotPending
	}
	return nil
}

// RecordError stores the latest failure message on a job that stays pending
// for a later retry.
func (s *JobStore) RecordError(ctx context.Context, id, errMsg string) error {
	_, err := s.db.ExecContext(ctx, RecordJobError, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to record job error: %w", err)
	}
	return nil
}

func (s *JobStore) ResetForRetry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, ResetJobForRetry, id)
	if err != nil {
		return fmt.Errorf("failed to reset job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return errors.New("only failed jobs can be retried")
	}
	return nil
}

func (s *JobStore) CountByStatus(ctx context.Context) (*JobCounts, error) {
	rows, err := s.db.QueryContext(ctx, CountJobsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := &JobCounts{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts.Total += count
		switch status {
		case JobStatusPending:
			counts.Pending = count
		case JobStatusPrinted:
			counts.Printed = count
		case JobStatusFailed:
			counts.Failed = count
		}
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*PrintJob, error) {
	j := &PrintJob{}
	var processedAt sql.NullTime
	err := row.Scan(
		&j.ID, &j.OrderID, &j.PrintData, &j.Status, &j.Attempts,
		&j.ErrorMessage, &j.CreatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		j.ProcessedAt = &processedAt.Time
	}
	return j, nil
}

func collectJobs(rows *sql.Rows) ([]*PrintJob, error) {
	var jobs []*PrintJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(database *sql.DB) *OrderStore {
	return &OrderStore{db: database}
}

func (s *OrderStore) CreateOrder(ctx context.Context, o *Order) error {
	_, err := s.db.ExecContext(ctx, InsertOrder, o.ID, o.OrderNumber, o.Payload)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	o := &Order{}
	err := s.db.QueryRowContext(ctx, GetOrderByID, id).Scan(
		&o.ID, &o.OrderNumber, &o.Payload, &o.PrintStatus, &o.PrintAttempts, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// SetPrintStatus mirrors the job outcome onto the originating order for
// staff-facing surfaces. Read externally, never read back by this service.
func (s *OrderStore) SetPrintStatus(ctx context.Context, id, status string, attempts int) error {
	_, err := s.db.ExecContext(ctx, UpdateOrderPrintStatus, status, attempts, id)
	if err != nil {
		return fmt.Errorf("failed to update order print status: %w", err)
	}
	return nil
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(database *sql.DB) *SettingsStore {
	return &SettingsStore{db: database}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	var encrypted int
	err := s.db.QueryRowContext(ctx, GetSetting, key).Scan(&value, &encrypted)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string, encrypted bool) error {
	enc := 0
	if encrypted {
		enc = 1
	}
	_, err := s.db.ExecContext(ctx, SetSetting, key, value, enc, value, enc)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
