package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

// rasterWidth is the printable dot width of 80mm paper at 203 DPI.
const rasterWidth = 576

// RasterRenderer renders the HTML receipt in a headless browser and
// converts the screenshot to an ESC/POS raster job. Used for printers whose
// text mode cannot render the receipt (broken code pages, missing fonts).
type RasterRenderer struct {
	html    *HTMLRenderer
	timeout time.Duration
}

func NewRasterRenderer() *RasterRenderer {
	return &RasterRenderer{
		html:    NewHTMLRenderer(),
		timeout: 15 * time.Second,
	}
}

func (r *RasterRenderer) ContentType() string {
	return "application/octet-stream"
}

func (r *RasterRenderer) Render(data *receipt.ReceiptData) ([]byte, error) {
	html, err := r.html.Render(data)
	if err != nil {
		return nil, err
	}

	img, err := r.screenshot(string(html))
	if err != nil {
		return nil, err
	}

	img = resizeToWidth(img, rasterWidth)
	raster := imageToRaster(img)

	var job []byte
	job = append(job, 0x1B, 0x40) // initialize
	job = append(job, raster...)
	job = append(job, 0x1B, 0x64, 0x03) // feed 3 lines
	job = append(job, 0x1D, 0x56, 0x00) // cut

	return job, nil
}

func (r *RasterRenderer) screenshot(html string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cdpCtx, cdpCancel := chromedp.NewContext(ctx)
	defer cdpCancel()

	var pngBytes []byte
	err := chromedp.Run(cdpCtx,
		chromedp.Navigate("data:text/html,"+urlEncode(html)),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, err := page.CaptureScreenshot().
				WithCaptureBeyondViewport(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pngBytes = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture receipt screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

func urlEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// imageToRaster converts an image to a 1-bit ESC/POS raster block (GS v 0).
func imageToRaster(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Raster width must be divisible by 8.
	if width%8 != 0 {
		width -= width % 8
	}

	rowBytes := width / 8
	raster := make([]byte, rowBytes*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := (r + g + b) / 3

			if gray < 0x8000 {
				byteIndex := y*rowBytes + x/8
				raster[byteIndex] |= 1 << (7 - uint(x%8))
			}
		}
	}

	header := []byte{
		0x1D, 0x76, 0x30, 0x00,
		byte(rowBytes), byte(rowBytes >> 8),
		byte(height), byte(height >> 8),
	}

	return append(header, raster...)
}

func resizeToWidth(src image.Image, targetWidth int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == targetWidth || w == 0 {
		return src
	}

	scale := float64(targetWidth) / float64(w)
	newHeight := int(float64(h) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			sx := bounds.Min.X + int(float64(x)/scale)
			sy := bounds.Min.Y + int(float64(y)/scale)
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
