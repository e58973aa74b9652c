package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/resocorp/jollofexpress-sub000/internal/config"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/escpos"
	"github.com/resocorp/jollofexpress-sub000/internal/printer"
	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

// Sender is the transport surface the processor needs. Satisfied by
// *printer.Client.
type Sender interface {
	Send(data []byte) printer.Result
	Configured() bool
}

// Notifier receives job outcome events for staff-facing surfaces. May be nil.
type Notifier interface {
	JobEvent(event string, job *db.PrintJob)
}

const (
	EventJobPrinted = "job_printed"
	EventJobRetry   = "job_retry"
	EventJobFailed  = "job_failed"
)

// Report summarizes one batch run.
type Report struct {
	Processed int `json:"processed"`
	Printed   int `json:"printed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ImmediateStatus classifies the fast-path outcome.
type ImmediateStatus string

const (
	ImmediatePrinted       ImmediateStatus = "printed"
	ImmediatePending       ImmediateStatus = "pending"
	ImmediateNotConfigured ImmediateStatus = "not_configured"
)

type ImmediateResult struct {
	Status  ImmediateStatus `json:"status"`
	JobID   string          `json:"job_id,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Processor owns the print-job state machine:
//
//	pending -> printed                    success, terminal
//	pending -> pending (attempts+1)       failure, attempts < max
//	pending -> failed                     failure, attempts exhausted, terminal
//
// Jobs in a terminal status are never re-processed.
type Processor struct {
	jobs     *db.JobStore
	orders   *db.OrderStore
	sender   Sender
	encoder  *escpos.Encoder
	cfg      config.QueueConfig
	notifier Notifier
}

func New(jobs *db.JobStore, orders *db.OrderStore, sender Sender, cfg config.QueueConfig) *Processor {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 5
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.JobDelay < 0 {
		cfg.JobDelay = 500 * time.Millisecond
	}
	return &Processor{
		jobs:    jobs,
		orders:  orders,
		sender:  sender,
		encoder: escpos.NewEncoder(),
		cfg:     cfg,
	}
}

// SetNotifier attaches an outcome listener. Must be called before the
// processor starts running.
func (p *Processor) SetNotifier(n Notifier) {
	p.notifier = n
}

// Enqueue persists a new pending job embedding the receipt snapshot.
func (p *Processor) Enqueue(ctx context.Context, orderID string, r *receipt.ReceiptData) (*db.PrintJob, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize receipt: %w", err)
	}

	job := &db.PrintJob{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		PrintData: string(data),
	}
	if err := p.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ProcessQueue pulls due jobs oldest-first and processes them strictly
// sequentially with a fixed delay in between, so the printer's input buffer
// never sees overlapping receipts. Status verification is intentionally
// skipped here to bound worst-case batch latency.
func (p *Processor) ProcessQueue(ctx context.Context) (Report, error) {
	var report Report

	jobs, err := p.jobs.DueJobs(ctx, p.cfg.MaxAttempts, p.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	for i, job := range jobs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(p.cfg.JobDelay):
			}
		}
		p.processJob(ctx, job, &report)
	}

	return report, nil
}

func (p *Processor) processJob(ctx context.Context, job *db.PrintJob, report *Report) {
	if err := p.jobs.ClaimAttempt(ctx, job.ID); err != nil {
		if errors.Is(err, db.ErrJobNotPending) {
			// The fast path finished this job between fetch and claim.
			report.Skipped++
			return
		}
		log.Printf("[queue] failed to claim job %s: %v", job.ID, err)
		return
	}
	job.Attempts++
	report.Processed++

	data, err := p.encodeJob(job)
	if err != nil {
		// Encoding is deterministic; retrying a malformed receipt has no
		// value, so this bypasses the attempt budget.
		p.failJob(ctx, job, fmt.Sprintf("encoding failed: %v", err))
		report.Failed++
		return
	}

	result := p.sender.Send(data)
	if result.OK {
		p.completeJob(ctx, job)
		report.Printed++
		return
	}

	errMsg := result.Message
	if result.Err != nil {
		errMsg = fmt.Sprintf("%s: %v", result.Message, result.Err)
	}

	if job.Attempts >= p.cfg.MaxAttempts {
		p.failJob(ctx, job, errMsg)
		report.Failed++
		return
	}

	p.deferJob(ctx, job, errMsg)
	report.Retried++
}

// TriggerImmediatePrint is the synchronous fast path invoked right after a
// job is enqueued. It never marks a job failed itself; a failure leaves the
// job pending so the batch processor's retry guarantee stays intact.
func (p *Processor) TriggerImmediatePrint(ctx context.Context, orderID string) ImmediateResult {
	if !p.sender.Configured() {
		return ImmediateResult{
			Status:  ImmediateNotConfigured,
			Message: "printer is not configured",
		}
	}

	job, err := p.jobs.PendingJobByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return ImmediateResult{
				Status:  ImmediateNotConfigured,
				Message: "no pending print job for order",
			}
		}
		return ImmediateResult{
			Status:  ImmediatePending,
			Message: fmt.Sprintf("lookup failed: %v", err),
		}
	}

	if err := p.jobs.ClaimAttempt(ctx, job.ID); err != nil {
		return ImmediateResult{
			Status:  ImmediatePending,
			JobID:   job.ID,
			Message: "job already being processed",
		}
	}
	job.Attempts++

	data, err := p.encodeJob(job)
	if err != nil {
		_ = p.jobs.RecordError(ctx, job.ID, fmt.Sprintf("encoding failed: %v", err))
		return ImmediateResult{
			Status:  ImmediatePending,
			JobID:   job.ID,
			Message: fmt.Sprintf("encoding failed: %v", err),
		}
	}

	result := p.sender.Send(data)
	if !result.OK {
		errMsg := result.Message
		if result.Err != nil {
			errMsg = fmt.Sprintf("%s: %v", result.Message, result.Err)
		}
		_ = p.jobs.RecordError(ctx, job.ID, errMsg)
		log.Printf("[queue] immediate print of job %s deferred to batch: %s", job.ID, errMsg)
		return ImmediateResult{
			Status:  ImmediatePending,
			JobID:   job.ID,
			Message: errMsg,
		}
	}

	p.completeJob(ctx, job)
	return ImmediateResult{
		Status: ImmediatePrinted,
		JobID:  job.ID,
	}
}

// encodeJob deserializes the receipt snapshot and encodes it, converting a
// panic from the pure encoder into an error at this boundary.
func (p *Processor) encodeJob(job *db.PrintJob) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	var r receipt.ReceiptData
	if err := json.Unmarshal([]byte(job.PrintData), &r); err != nil {
		return nil, fmt.Errorf("invalid print data: %w", err)
	}
	return p.encoder.Encode(&r), nil
}

func (p *Processor) completeJob(ctx context.Context, job *db.PrintJob) {
	now := time.Now()
	if err := p.jobs.MarkPrinted(ctx, job.ID, now); err != nil {
		log.Printf("[queue] failed to mark job %s printed: %v", job.ID, err)
		return
	}
	job.Status = db.JobStatusPrinted
	job.ProcessedAt = &now

	if err := p.orders.SetPrintStatus(ctx, job.OrderID, db.JobStatusPrinted, job.Attempts); err != nil {
		log.Printf("[queue] failed to mirror print status onto order %s: %v", job.OrderID, err)
	}

	log.Printf("[queue] job %s printed (attempt %d)", job.ID, job.Attempts)
	if p.notifier != nil {
		p.notifier.JobEvent(EventJobPrinted, job)
	}
}

func (p *Processor) failJob(ctx context.Context, job *db.PrintJob, errMsg string) {
	now := time.Now()
	if err := p.jobs.MarkFailed(ctx, job.ID, errMsg, now); err != nil {
		log.Printf("[queue] failed to mark job %s failed: %v", job.ID, err)
		return
	}
	job.Status = db.JobStatusFailed
	job.ErrorMessage = errMsg
	job.ProcessedAt = &now

	if err := p.orders.SetPrintStatus(ctx, job.OrderID, db.JobStatusFailed, job.Attempts); err != nil {
		log.Printf("[queue] failed to mirror print status onto order %s: %v", job.OrderID, err)
	}

	log.Printf("[queue] job %s failed after %d attempts: %s", job.ID, job.Attempts, errMsg)
	if p.notifier != nil {
		p.notifier.JobEvent(EventJobFailed, job)
	}
}

func (p *Processor) deferJob(ctx context.Context, job *db.PrintJob, errMsg string) {
	if err := p.jobs.RecordError(ctx, job.ID, errMsg); err != nil {
		log.Printf("[queue] failed to record error on job %s: %v", job.ID, err)
	}
	job.ErrorMessage = errMsg

	log.Printf("[queue] job %s attempt %d/%d failed, will retry: %s",
		job.ID, job.Attempts, p.cfg.MaxAttempts, errMsg)
	if p.notifier != nil {
		p.notifier.JobEvent(EventJobRetry, job)
	}
}

// RetryFailed resets a terminally failed job back to pending with a fresh
// attempt budget. Operator-initiated; the state machine itself never leaves
// a terminal status.
func (p *Processor) RetryFailed(ctx context.Context, jobID string) error {
	return p.jobs.ResetForRetry(ctx, jobID)
}
