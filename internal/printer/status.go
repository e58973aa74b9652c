package printer

import (
	"github.com/resocorp/jollofexpress-sub000/internal/escpos"
)

// PrinterStatus is a transient view decoded from the real-time status byte.
// Always re-queried, never persisted.
type PrinterStatus struct {
	Connected   bool   `json:"connected"`
	Online      bool   `json:"online"`
	CoverClosed bool   `json:"cover_closed"`
	ErrorState  bool   `json:"error_state"`
	Raw         byte   `json:"raw"`
	Error       string `json:"error,omitempty"`
}

type PaperStatus struct {
	Connected    bool   `json:"connected"`
	PaperPresent bool   `json:"paper_present"`
	PaperNearEnd bool   `json:"paper_near_end"`
	Raw          byte   `json:"raw"`
	Error        string `json:"error,omitempty"`
}

// Readiness composes the two status queries. Paper-near-end surfaces as a
// warning only; printing proceeds until the roll actually runs out.
type Readiness struct {
	Ready    bool          `json:"ready"`
	Blockers []string      `json:"blockers,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Printer  PrinterStatus `json:"printer"`
	Paper    PaperStatus   `json:"paper"`
}

// DecodePrinterStatus maps the real-time status byte onto named flags.
func DecodePrinterStatus(b byte) PrinterStatus {
	return PrinterStatus{
		Connected:   true,
		Online:      b&escpos.StatusOffline == 0,
		CoverClosed: b&escpos.StatusCoverOpen == 0,
		ErrorState:  b&escpos.StatusError != 0,
		Raw:         b,
	}
}

// DecodePaperStatus maps the paper-sensor status byte onto named flags.
func DecodePaperStatus(b byte) PaperStatus {
	return PaperStatus{
		Connected:    true,
		PaperPresent: b&escpos.StatusPaperOut == 0,
		PaperNearEnd: b&escpos.StatusPaperNearEnd != 0,
		Raw:          b,
	}
}

// PrinterStatus issues the device's real-time status query. Connection
// failure is reported on the value, never raised.
func (c *Client) PrinterStatus() PrinterStatus {
	response, err := c.QueryStatus(escpos.QueryPrinterStatus, c.cfg.StatusTimeout)
	if err != nil {
		return PrinterStatus{Connected: false, Error: err.Error()}
	}
	if len(response) == 0 {
		return PrinterStatus{Connected: false, Error: "no response to status query"}
	}
	return DecodePrinterStatus(response[0])
}

// PaperStatus issues the paper-sensor status query.
func (c *Client) PaperStatus() PaperStatus {
	response, err := c.QueryStatus(escpos.QueryPaperStatus, c.cfg.StatusTimeout)
	if err != nil {
		return PaperStatus{Connected: false, Error: err.Error()}
	}
	if len(response) == 0 {
		return PaperStatus{Connected: false, Error: "no response to paper query"}
	}
	return DecodePaperStatus(response[0])
}

// IsReady runs both status queries sequentially (the printer must never see
// concurrent connections from this service) and reduces them to a single
// verdict with the specific blocking conditions spelled out.
func (c *Client) IsReady() Readiness {
	r := Readiness{
		Printer: c.PrinterStatus(),
	}

	if !r.Printer.Connected {
		r.Blockers = append(r.Blockers, "not connected")
		r.Paper = PaperStatus{Connected: false, Error: "skipped: printer not connected"}
		return r
	}

	if !r.Printer.Online {
		r.Blockers = append(r.Blockers, "printer offline")
	}
	if !r.Printer.CoverClosed {
		r.Blockers = append(r.Blockers, "cover open")
	}
	if r.Printer.ErrorState {
		r.Warnings = append(r.Warnings, "printer reports an error condition")
	}

	r.Paper = c.PaperStatus()
	if !r.Paper.Connected {
		r.Blockers = append(r.Blockers, "paper sensor not responding")
	} else {
		if !r.Paper.PaperPresent {
			r.Blockers = append(r.Blockers, "no paper")
		}
		if r.Paper.PaperNearEnd {
			r.Warnings = append(r.Warnings, "paper near end")
		}
	}

	r.Ready = len(r.Blockers) == 0
	return r
}
