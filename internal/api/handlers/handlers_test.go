package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/resocorp/jollofexpress-sub000/internal/config"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/printer"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

type stubSender struct {
	configured bool
	fail       bool
}

func (s *stubSender) Send(data []byte) printer.Result {
	if s.fail {
		return printer.Result{OK: false, Message: "could not connect to printer"}
	}
	return printer.Result{OK: true, Message: "sent"}
}

func (s *stubSender) Configured() bool { return s.configured }

func testAPI(t *testing.T, sender *stubSender) (*gin.Engine, *db.JobStore, *db.OrderStore, *queue.Processor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.Open(db.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	jobs := db.NewJobStore(database)
	orders := db.NewOrderStore(database)
	processor := queue.New(jobs, orders, sender, config.QueueConfig{})

	router := gin.New()
	api := router.Group("/api")
	RegisterOrderRoutes(api, NewOrderHandler(orders, processor))
	RegisterJobRoutes(api, NewJobHandler(jobs, processor))

	return router, jobs, orders, processor
}

func sampleOrderBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&receipt.Order{
		ID:            "ord-1",
		OrderNumber:   "1042",
		CustomerName:  "Adaeze Obi",
		CustomerPhone: "08031234567",
		Items: []receipt.OrderItem{
			{Quantity: 1, Name: "Jollof Rice", LinePrice: decimal.NewFromInt(5000)},
		},
		Subtotal:      decimal.NewFromInt(5000),
		Total:         decimal.NewFromInt(5000),
		PaymentStatus: "PAID",
	})
	if err != nil {
		t.Fatalf("failed to marshal order: %v", err)
	}
	return body
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderPrintsImmediately(t *testing.T) {
	router, jobs, _, _ := testAPI(t, &stubSender{configured: true})

	w := doRequest(router, http.MethodPost, "/api/orders", sampleOrderBody(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp CreateOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Immediate.Status != queue.ImmediatePrinted {
		t.Errorf("expected immediate print, got %s", resp.Immediate.Status)
	}

	job, err := jobs.GetJob(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != db.JobStatusPrinted {
		t.Errorf("expected printed job, got %s", job.Status)
	}
}

func TestCreateOrderQueuesWhenPrinterDown(t *testing.T) {
	router, jobs, _, _ := testAPI(t, &stubSender{configured: true, fail: true})

	w := doRequest(router, http.MethodPost, "/api/orders", sampleOrderBody(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 even with a dead printer, got %d", w.Code)
	}

	var resp CreateOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Immediate.Status != queue.ImmediatePending {
		t.Errorf("expected pending, got %s", resp.Immediate.Status)
	}

	job, err := jobs.GetJob(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != db.JobStatusPending {
		t.Errorf("job must stay pending for the batch retry, got %s", job.Status)
	}
}

func TestCreateOrderMissingField(t *testing.T) {
	router, _, _, _ := testAPI(t, &stubSender{configured: true})

	body, _ := json.Marshal(&receipt.Order{ID: "ord-1", OrderNumber: "1042"})
	w := doRequest(router, http.MethodPost, "/api/orders", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for incomplete order, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Error != "missing_field" {
		t.Errorf("unexpected error code: %q", resp.Error)
	}
}

func TestGetReceiptHTML(t *testing.T) {
	router, _, _, _ := testAPI(t, &stubSender{configured: true})

	if w := doRequest(router, http.MethodPost, "/api/orders", sampleOrderBody(t)); w.Code != http.StatusCreated {
		t.Fatalf("setup order failed: %d", w.Code)
	}

	w := doRequest(router, http.MethodGet, "/api/orders/ord-1/receipt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type: %q", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("ORDER #1042")) {
		t.Error("receipt body missing order number")
	}
}

func TestListJobsAndStats(t *testing.T) {
	router, _, _, _ := testAPI(t, &stubSender{configured: true})

	if w := doRequest(router, http.MethodPost, "/api/orders", sampleOrderBody(t)); w.Code != http.StatusCreated {
		t.Fatalf("setup order failed: %d", w.Code)
	}

	w := doRequest(router, http.MethodGet, "/api/jobs?status=printed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed []JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != db.JobStatusPrinted {
		t.Errorf("unexpected jobs: %+v", listed)
	}

	if w := doRequest(router, http.MethodGet, "/api/jobs?status=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bogus status filter: expected 400, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/queue/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats failed: %d", w.Code)
	}
	var stats QueueStatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad stats: %v", err)
	}
	if stats.Printed != 1 || stats.Total != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRetryEndpoint(t *testing.T) {
	router, jobs, _, _ := testAPI(t, &stubSender{configured: true, fail: true})

	w := doRequest(router, http.MethodPost, "/api/orders", sampleOrderBody(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("setup order failed: %d", w.Code)
	}
	var resp CreateOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}

	// A pending job cannot be retried.
	if w := doRequest(router, http.MethodPost, "/api/jobs/"+resp.JobID+"/retry", nil); w.Code != http.StatusConflict {
		t.Errorf("retry of pending job: expected 409, got %d", w.Code)
	}

	ctx := context.Background()
	if err := jobs.MarkFailed(ctx, resp.JobID, "exhausted", time.Now()); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}

	if w := doRequest(router, http.MethodPost, "/api/jobs/"+resp.JobID+"/retry", nil); w.Code != http.StatusOK {
		t.Errorf("retry of failed job: expected 200, got %d", w.Code)
	}

	job, err := jobs.GetJob(ctx, resp.JobID)
	if err != nil {
		t.Fatalf("job lookup failed: %v", err)
	}
	if job.Status != db.JobStatusPending || job.Attempts != 0 {
		t.Errorf("retry must reset the job, got %s/%d", job.Status, job.Attempts)
	}
}
