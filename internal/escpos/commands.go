package escpos

// ESC/POS control sequences for 80mm thermal receipt printers.
var (
	// Issued once at the start of every receipt.
	Initialize  = []byte{0x1B, 0x40}       // ESC @
	CharsetUSA  = []byte{0x1B, 0x52, 0x00} // ESC R 0
	CodePage437 = []byte{0x1B, 0x74, 0x00} // ESC t 0
	LineSpacing = []byte{0x1B, 0x33, 0x18} // ESC 3 24, condensed

	AlignLeft   = []byte{0x1B, 0x61, 0x00} // ESC a 0
	AlignCenter = []byte{0x1B, 0x61, 0x01} // ESC a 1
	AlignRight  = []byte{0x1B, 0x61, 0x02} // ESC a 2

	SizeNormal       = []byte{0x1D, 0x21, 0x00} // GS ! 0
	SizeDoubleHeight = []byte{0x1D, 0x21, 0x01}
	SizeDoubleWidth  = []byte{0x1D, 0x21, 0x10}
	SizeLarge        = []byte{0x1D, 0x21, 0x11} // double height + width

	BoldOn  = []byte{0x1B, 0x45, 0x01} // ESC E 1
	BoldOff = []byte{0x1B, 0x45, 0x00}

	UnderlineOn  = []byte{0x1B, 0x2D, 0x01} // ESC - 1
	UnderlineOff = []byte{0x1B, 0x2D, 0x00}

	InvertOn  = []byte{0x1D, 0x42, 0x01} // GS B 1
	InvertOff = []byte{0x1D, 0x42, 0x00}

	// CutPaper feeds past the print head and performs a full cut.
	CutPaper = []byte{0x1D, 0x56, 0x00} // GS V 0

	// Real-time status queries. Each elicits a single status byte.
	QueryPrinterStatus = []byte{0x10, 0x04, 0x01} // DLE EOT 1
	QueryPaperStatus   = []byte{0x10, 0x04, 0x04} // DLE EOT 4
)

// Status byte bitmasks for the DLE EOT responses.
const (
	StatusOffline   = 0x08 // printer status, bit 3
	StatusCoverOpen = 0x20 // printer status, bit 5
	StatusError     = 0x40 // printer status, bit 6

	StatusPaperOut     = 0x60 // paper status, bits 5-6
	StatusPaperNearEnd = 0x0C // paper status, bits 2-3
)
