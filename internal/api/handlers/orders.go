package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
	"github.com/resocorp/jollofexpress-sub000/internal/render"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type CreateOrderResponse struct {
	OrderID   string                `json:"order_id"`
	JobID     string                `json:"job_id"`
	Immediate queue.ImmediateResult `json:"immediate"`
}

type OrderHandler struct {
	orders    *db.OrderStore
	processor *queue.Processor
	html      *render.HTMLRenderer
	raster    *render.RasterRenderer
}

func NewOrderHandler(orders *db.OrderStore, processor *queue.Processor) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		processor: processor,
		html:      render.NewHTMLRenderer(),
		raster:    render.NewRasterRenderer(),
	}
}

// CreateOrder accepts an upstream order, snapshots it into a receipt and
// enqueues a print job. The immediate print is attempted before responding so
// the common case (printer healthy) returns "printed".
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var order receipt.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	r, err := receipt.FromOrder(&order)
	if err != nil {
		var missing *receipt.MissingFieldError
		if errors.As(err, &missing) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "missing_field",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_order",
			Message: err.Error(),
		})
		return
	}

	payload, err := json.Marshal(&order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "serialization_error",
			Message: "Failed to serialize order",
		})
		return
	}

	if err := h.orders.CreateOrder(c.Request.Context(), &db.Order{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Payload:     string(payload),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to store order",
		})
		return
	}

	job, err := h.processor.Enqueue(c.Request.Context(), order.ID, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "queue_error",
			Message: "Failed to enqueue print job",
		})
		return
	}

	result := h.processor.TriggerImmediatePrint(c.Request.Context(), order.ID)

	c.JSON(http.StatusCreated, CreateOrderResponse{
		OrderID:   order.ID,
		JobID:     job.ID,
		Immediate: result,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve order",
		})
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetReceipt renders the stored order as a browser-printable receipt. With
// ?format=raster it returns the ESC/POS raster job produced by the headless
// browser pipeline instead.
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve order",
		})
		return
	}

	var upstream receipt.Order
	if err := json.Unmarshal([]byte(order.Payload), &upstream); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "payload_error",
			Message: "Stored order payload is not readable",
		})
		return
	}

	r, err := receipt.FromOrder(&upstream)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_order",
			Message: err.Error(),
		})
		return
	}

	var renderer render.Renderer = h.html
	if c.Query("format") == "raster" {
		renderer = h.raster
	}

	body, err := renderer.Render(r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "render_error",
			Message: err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, renderer.ContentType(), body)
}

func RegisterOrderRoutes(router *gin.RouterGroup, handler *OrderHandler) {
	orders := router.Group("/orders")
	{
		orders.POST("", handler.CreateOrder)
		orders.GET("/:id", handler.GetOrder)
		orders.GET("/:id/receipt", handler.GetReceipt)
	}
}
