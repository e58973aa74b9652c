package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resocorp/jollofexpress-sub000/internal/printer"
)

type PrinterStatusResponse struct {
	Configured bool                  `json:"configured"`
	Ready      bool                  `json:"ready"`
	Blockers   []string              `json:"blockers,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	Printer    printer.PrinterStatus `json:"printer"`
	Paper      printer.PaperStatus   `json:"paper"`
}

type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PrinterAPIHandler struct {
	client *printer.Client
}

func NewPrinterAPIHandler(client *printer.Client) *PrinterAPIHandler {
	return &PrinterAPIHandler{client: client}
}

// Status reports full readiness including the paper and printer status
// probes. Probe failures come back inside the response body, never as an
// HTTP error.
func (h *PrinterAPIHandler) Status(c *gin.Context) {
	if !h.client.Configured() {
		c.JSON(http.StatusOK, PrinterStatusResponse{
			Configured: false,
			Blockers:   []string{"printer is not configured"},
		})
		return
	}

	readiness := h.client.IsReady()
	c.JSON(http.StatusOK, PrinterStatusResponse{
		Configured: true,
		Ready:      readiness.Ready,
		Blockers:   readiness.Blockers,
		Warnings:   readiness.Warnings,
		Printer:    readiness.Printer,
		Paper:      readiness.Paper,
	})
}

// TestConnection is the cheap connect-only probe used by the settings UI.
func (h *PrinterAPIHandler) TestConnection(c *gin.Context) {
	result := h.client.TestConnection()
	c.JSON(http.StatusOK, TestConnectionResponse{
		Success: result.OK,
		Message: result.Message,
	})
}

func RegisterPrinterRoutes(router *gin.RouterGroup, handler *PrinterAPIHandler) {
	p := router.Group("/printer")
	{
		p.GET("/status", handler.Status)
		p.POST("/test", handler.TestConnection)
	}
}
