package render

import (
	"bytes"
	"context"
	"image"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/observability"
)

// Format is an export output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// Formats lists every supported format.
var Formats = []Format{FormatPNG, FormatPDF, FormatSVG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatPDF, FormatSVG:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q (want png, pdf or svg)", s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// Export limits.
const (
	MaxPNGSide   = 5000
	MaxPDFSide   = 4000
	DefaultScale = 2.0
)

// RasterFunc draws a scene at a scale.
type RasterFunc func(s *Scene, scale float64) (image.Image, error)

// ConvertFunc turns SVG into PNG bytes at a scale.
type ConvertFunc func(svg []byte, scale float64) ([]byte, error)

// ExportOption configures Export.
type ExportOption func(*exporter)

type exporter struct {
	scale   float64
	maxSide int
	raster  RasterFunc
	convert ConvertFunc
	svgOpts []SVGOption
	logger  *log.Logger
}

// WithScale sets the pixel ratio of raster output (default 2).
func WithScale(s float64) ExportOption {
	return func(e *exporter) {
		if s > 0 {
			e.scale = s
		}
	}
}

// WithMaxSide lowers the format's side limit. Values above it are ignored.
func WithMaxSide(n int) ExportOption {
	return func(e *exporter) { e.maxSide = n }
}

// WithRasterizer replaces the primary raster path.
func WithRasterizer(f RasterFunc) ExportOption {
	return func(e *exporter) { e.raster = f }
}

// WithConverter replaces the SVG fallback converter.
func WithConverter(f ConvertFunc) ExportOption {
	return func(e *exporter) { e.convert = f }
}

// WithSVGOptions passes options through to the SVG renderer.
func WithSVGOptions(opts ...SVGOption) ExportOption {
	return func(e *exporter) { e.svgOpts = opts }
}

// WithLogger reports fallbacks and failures.
func WithLogger(l *log.Logger) ExportOption {
	return func(e *exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// Export encodes the scene. Raster formats are drawn directly; when that
// fails or yields an empty image the scene goes through SVG and
// rsvg-convert instead. If both fail the result is EXPORT_FAILED and no
// bytes are returned.
func Export(ctx context.Context, s *Scene, f Format, opts ...ExportOption) ([]byte, error) {
	e := exporter{
		scale:   DefaultScale,
		raster:  Rasterize,
		convert: ToPNG,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&e)
	}

	start := time.Now()
	formats := []string{string(f)}
	observability.Pipeline().OnExportStart(ctx, formats)
	out, err := e.export(ctx, s, f)
	observability.Pipeline().OnExportComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		e.logger.Error("export failed", "format", f, "err", err)
		return nil, err
	}
	return out, nil
}

func (e *exporter) export(ctx context.Context, s *Scene, f Format) ([]byte, error) {
	switch f {
	case FormatSVG:
		return RenderSVG(s, e.svgOpts...), nil
	case FormatPNG:
		side := e.limit(MaxPNGSide)
		img, err := e.image(ctx, s, f, side)
		if err != nil {
			return nil, err
		}
		return encodePNG(Downscale(img, side))
	case FormatPDF:
		side := e.limit(MaxPDFSide)
		img, err := e.image(ctx, s, f, side)
		if err != nil {
			return nil, err
		}
		return encodePDF(Downscale(img, side))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q", f)
}

func (e *exporter) limit(side int) int {
	if e.maxSide > 0 && e.maxSide < side {
		return e.maxSide
	}
	return side
}

// FitScale lowers scale so that the longer scene side times scale does not
// exceed maxSide. Rasters are then never allocated larger than the export.
func FitScale(s *Scene, scale float64, maxSide int) float64 {
	longest := float64(max(s.Width, s.Height))
	if maxSide <= 0 || longest <= 0 || longest*scale <= float64(maxSide) {
		return scale
	}
	return float64(maxSide) / longest
}

func (e *exporter) image(ctx context.Context, s *Scene, f Format, side int) (image.Image, error) {
	scale := FitScale(s, e.scale, side)
	img, err := e.raster(s, scale)
	if err == nil && !empty(img) {
		return img, nil
	}
	if err == nil {
		err = errors.New(errors.ErrCodeExport, "raster output is empty")
	}
	observability.Pipeline().OnExportFallback(ctx, string(f), err)
	e.logger.Warn("raster export failed, falling back to SVG", "format", f, "err", err)

	data, cerr := e.convert(RenderSVG(s, e.svgOpts...), scale)
	if cerr != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, cerr, "export to %s failed (raster: %v)", f, err)
	}
	img, cerr = imaging.Decode(bytes.NewReader(data))
	if cerr != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, cerr, "export to %s failed: unreadable fallback image", f)
	}
	if empty(img) {
		return nil, errors.New(errors.ErrCodeExport, "export to %s failed: empty fallback image", f)
	}
	return img, nil
}

func empty(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}

// Downscale shrinks img so that neither side exceeds maxSide, keeping the
// aspect ratio. Smaller images are returned unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || max(b.Dx(), b.Dy()) <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "encode png")
	}
	return buf.Bytes(), nil
}

// PageSize returns the fpdf page size and orientation holding a w×h image
// at one point per pixel. Pages are landscape when w >= h.
func PageSize(w, h int) (fpdf.SizeType, string) {
	short, long := float64(min(w, h)), float64(max(w, h))
	if w >= h {
		return fpdf.SizeType{Wd: short, Ht: long}, "L"
	}
	return fpdf.SizeType{Wd: short, Ht: long}, "P"
}

func encodePDF(img image.Image) ([]byte, error) {
	pngData, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	size, orientation := PageSize(b.Dx(), b.Dy())

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("map", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("map", 0, 0, float64(b.Dx()), float64(b.Dy()), false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "write pdf")
	}
	return buf.Bytes(), nil
}
