package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resocorp/jollofexpress-sub000/internal/config"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/printer"
	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

type fakeSender struct {
	configured bool
	fail       bool
	failErr    error
	sent       [][]byte
}

func (f *fakeSender) Send(data []byte) printer.Result {
	f.sent = append(f.sent, data)
	if f.fail {
		return printer.Result{OK: false, Message: "could not connect to printer", Err: f.failErr}
	}
	return printer.Result{OK: true, Message: "sent"}
}

func (f *fakeSender) Configured() bool {
	return f.configured
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) JobEvent(event string, job *db.PrintJob) {
	n.events = append(n.events, fmt.Sprintf("%s:%s", event, job.Status))
}

func testStores(t *testing.T) (*db.JobStore, *db.OrderStore) {
	t.Helper()
	database, err := db.Open(db.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewJobStore(database), db.NewOrderStore(database)
}

func testProcessor(t *testing.T, sender *fakeSender) (*Processor, *db.JobStore, *db.OrderStore) {
	t.Helper()
	jobs, orders := testStores(t)
	p := New(jobs, orders, sender, config.QueueConfig{
		BatchSize:   5,
		MaxAttempts: 3,
		JobDelay:    time.Millisecond,
	})
	return p, jobs, orders
}

func testReceipt(orderID string) *receipt.ReceiptData {
	return &receipt.ReceiptData{
		OrderID:      orderID,
		OrderNumber:  "1042",
		Date:         "Mar 14, 2025",
		Time:         "1:05 PM",
		OrderType:    receipt.OrderTypeCarryout,
		CustomerName: "Adaeze Obi",
		Phone:        "08031234567",
		Items: []receipt.ReceiptItem{
			{Quantity: 1, Name: "Jollof Rice", LinePrice: decimal.NewFromInt(5000)},
		},
		Subtotal:      decimal.NewFromInt(5000),
		Total:         decimal.NewFromInt(5000),
		PaymentStatus: "PAID",
	}
}

func enqueueOrder(t *testing.T, p *Processor, orders *db.OrderStore, orderID string) *db.PrintJob {
	t.Helper()
	ctx := context.Background()
	if err := orders.CreateOrder(ctx, &db.Order{ID: orderID, OrderNumber: "1042", Payload: "{}"}); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	job, err := p.Enqueue(ctx, orderID, testReceipt(orderID))
	if err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}
	return job
}

func TestEnqueueCreatesPendingJob(t *testing.T) {
	p, jobs, orders := testProcessor(t, &fakeSender{configured: true})
	job := enqueueOrder(t, p, orders, "ord-1")

	stored, err := jobs.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if stored.Status != db.JobStatusPending || stored.Attempts != 0 {
		t.Errorf("new job must be pending with zero attempts, got %s/%d", stored.Status, stored.Attempts)
	}
	if stored.PrintData == "" {
		t.Error("job must embed the receipt snapshot")
	}
}

func TestProcessQueuePrintsJob(t *testing.T) {
	sender := &fakeSender{configured: true}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")

	report, err := p.ProcessQueue(context.Background())
	if err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}
	if report.Printed != 1 || report.Processed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	stored, _ := jobs.GetJob(context.Background(), job.ID)
	if stored.Status != db.JobStatusPrinted {
		t.Errorf("expected printed, got %s", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", stored.Attempts)
	}
	if stored.ProcessedAt == nil {
		t.Error("printed job must have a processed timestamp")
	}

	order, _ := orders.GetOrder(context.Background(), "ord-1")
	if order.PrintStatus != db.JobStatusPrinted || order.PrintAttempts != 1 {
		t.Errorf("order mirror not updated: %s/%d", order.PrintStatus, order.PrintAttempts)
	}
}

func TestProcessQueueRetriesThenFails(t *testing.T) {
	sender := &fakeSender{configured: true, fail: true, failErr: errors.New("connection refused")}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")
	ctx := context.Background()

	// First two passes leave the job pending with the attempt recorded.
	for pass := 1; pass <= 2; pass++ {
		report, err := p.ProcessQueue(ctx)
		if err != nil {
			t.Fatalf("pass %d failed: %v", pass, err)
		}
		if report.Retried != 1 {
			t.Fatalf("pass %d: expected 1 retried, got %+v", pass, report)
		}
		stored, _ := jobs.GetJob(ctx, job.ID)
		if stored.Status != db.JobStatusPending || stored.Attempts != pass {
			t.Fatalf("pass %d: expected pending/%d, got %s/%d", pass, pass, stored.Status, stored.Attempts)
		}
		if stored.ErrorMessage == "" {
			t.Fatalf("pass %d: failure reason not recorded", pass)
		}
	}

	// Third failure exhausts the budget.
	report, err := p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("final pass failed: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected 1 failed, got %+v", report)
	}

	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusFailed || stored.Attempts != 3 {
		t.Errorf("expected failed/3, got %s/%d", stored.Status, stored.Attempts)
	}
	if !strings.Contains(stored.ErrorMessage, "connection refused") {
		t.Errorf("error message must keep the last failure reason, got %q", stored.ErrorMessage)
	}

	// Terminal jobs are never picked up again.
	report, err = p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("post-terminal pass failed: %v", err)
	}
	if report.Processed != 0 {
		t.Errorf("failed job was reprocessed: %+v", report)
	}
	if len(sender.sent) != 3 {
		t.Errorf("expected exactly 3 sends, got %d", len(sender.sent))
	}
}

func TestProcessQueueEncodingFailureFailsFast(t *testing.T) {
	sender := &fakeSender{configured: true}
	p, jobs, orders := testProcessor(t, sender)
	ctx := context.Background()

	if err := orders.CreateOrder(ctx, &db.Order{ID: "ord-1", OrderNumber: "1042", Payload: "{}"}); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	job := &db.PrintJob{ID: "job-bad", OrderID: "ord-1", PrintData: "not json"}
	if err := jobs.CreateJob(ctx, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	report, err := p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected immediate failure, got %+v", report)
	}

	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusFailed || stored.Attempts != 1 {
		t.Errorf("malformed job must fail on first attempt, got %s/%d", stored.Status, stored.Attempts)
	}
	if !strings.Contains(stored.ErrorMessage, "encoding failed") {
		t.Errorf("unexpected error message: %q", stored.ErrorMessage)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing must reach the printer when encoding fails")
	}
}

func TestProcessQueueBatchLimit(t *testing.T) {
	sender := &fakeSender{configured: true}
	p, _, orders := testProcessor(t, sender)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		enqueueOrder(t, p, orders, fmt.Sprintf("ord-%d", i))
	}

	report, err := p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}
	if report.Processed != 5 {
		t.Errorf("expected batch of 5, processed %d", report.Processed)
	}

	report, err = p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if report.Processed != 2 {
		t.Errorf("expected remaining 2, processed %d", report.Processed)
	}
}

func TestTriggerImmediatePrintSuccess(t *testing.T) {
	sender := &fakeSender{configured: true}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")
	ctx := context.Background()

	result := p.TriggerImmediatePrint(ctx, "ord-1")
	if result.Status != ImmediatePrinted {
		t.Fatalf("expected printed, got %s (%s)", result.Status, result.Message)
	}
	if result.JobID != job.ID {
		t.Errorf("result names wrong job: %s", result.JobID)
	}

	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPrinted || stored.Attempts != 1 {
		t.Errorf("expected printed/1, got %s/%d", stored.Status, stored.Attempts)
	}

	// The batch pass must not see the finished job again.
	report, err := p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}
	if report.Processed != 0 {
		t.Errorf("printed job re-entered the batch: %+v", report)
	}
	if len(sender.sent) != 1 {
		t.Errorf("expected exactly 1 send, got %d", len(sender.sent))
	}
}

func TestTriggerImmediatePrintFailureLeavesPending(t *testing.T) {
	sender := &fakeSender{configured: true, fail: true, failErr: errors.New("connection refused")}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")
	ctx := context.Background()

	result := p.TriggerImmediatePrint(ctx, "ord-1")
	if result.Status != ImmediatePending {
		t.Fatalf("expected pending, got %s", result.Status)
	}

	// The fast path never marks a job failed, whatever went wrong.
	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPending {
		t.Fatalf("fast path must leave the job pending, got %s", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Errorf("failed fast-path attempt must count, got %d", stored.Attempts)
	}
	if stored.ErrorMessage == "" {
		t.Error("failure reason not recorded")
	}

	// The batch processor picks it up once the printer recovers.
	sender.fail = false
	report, err := p.ProcessQueue(ctx)
	if err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}
	if report.Printed != 1 {
		t.Fatalf("expected recovery print, got %+v", report)
	}

	stored, _ = jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPrinted || stored.Attempts != 2 {
		t.Errorf("expected printed/2, got %s/%d", stored.Status, stored.Attempts)
	}
}

func TestTriggerImmediatePrintUnconfigured(t *testing.T) {
	sender := &fakeSender{configured: false}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")
	ctx := context.Background()

	result := p.TriggerImmediatePrint(ctx, "ord-1")
	if result.Status != ImmediateNotConfigured {
		t.Fatalf("expected not_configured, got %s", result.Status)
	}

	// The job is untouched and waits for a configured printer.
	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPending || stored.Attempts != 0 {
		t.Errorf("unconfigured fast path must not touch the job, got %s/%d", stored.Status, stored.Attempts)
	}
}

func TestTriggerImmediatePrintNoPendingJob(t *testing.T) {
	p, _, _ := testProcessor(t, &fakeSender{configured: true})

	result := p.TriggerImmediatePrint(context.Background(), "no-such-order")
	if result.Status != ImmediateNotConfigured {
		t.Fatalf("expected not_configured, got %s", result.Status)
	}
}

func TestRetryFailedResetsJob(t *testing.T) {
	sender := &fakeSender{configured: true, fail: true, failErr: errors.New("unplugged")}
	p, jobs, orders := testProcessor(t, sender)
	job := enqueueOrder(t, p, orders, "ord-1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := p.ProcessQueue(ctx); err != nil {
			t.Fatalf("pass %d failed: %v", i+1, err)
		}
	}
	stored, _ := jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusFailed {
		t.Fatalf("setup: expected failed job, got %s", stored.Status)
	}

	if err := p.RetryFailed(ctx, job.ID); err != nil {
		t.Fatalf("RetryFailed rejected a failed job: %v", err)
	}

	stored, _ = jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPending || stored.Attempts != 0 {
		t.Errorf("retry must reset to pending/0, got %s/%d", stored.Status, stored.Attempts)
	}

	// Only failed jobs can be reset.
	if err := p.RetryFailed(ctx, job.ID); err == nil {
		t.Error("retry of a pending job must be rejected")
	}

	sender.fail = false
	if _, err := p.ProcessQueue(ctx); err != nil {
		t.Fatalf("recovery pass failed: %v", err)
	}
	stored, _ = jobs.GetJob(ctx, job.ID)
	if stored.Status != db.JobStatusPrinted {
		t.Errorf("reset job must print, got %s", stored.Status)
	}
}

func TestNotifierReceivesOutcomes(t *testing.T) {
	sender := &fakeSender{configured: true}
	p, _, orders := testProcessor(t, sender)
	notifier := &recordingNotifier{}
	p.SetNotifier(notifier)

	enqueueOrder(t, p, orders, "ord-1")
	if _, err := p.ProcessQueue(context.Background()); err != nil {
		t.Fatalf("ProcessQueue failed: %v", err)
	}

	if len(notifier.events) != 1 || notifier.events[0] != "job_printed:printed" {
		t.Errorf("unexpected events: %v", notifier.events)
	}
}
