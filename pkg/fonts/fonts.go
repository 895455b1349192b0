// Package fonts provides the label typefaces for raster and vector exports.
//
// The Go fonts ship inside golang.org/x/image, so exports render the same
// on every machine without system font lookups.
package fonts

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family name written into SVG output.
const FontFamily = "Go"

// FallbackFontFamily lists the families tried when Go is not installed.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

// DPI is the resolution faces are built for; at 72 one point is one pixel.
const DPI = 72

// Parsed fonts (computed once on first access).
var (
	regular, bold *opentype.Font
	parseErr      error
	parseOnce     sync.Once
)

func parse() error {
	parseOnce.Do(func() {
		if regular, parseErr = opentype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		bold, parseErr = opentype.Parse(gobold.TTF)
	})
	return parseErr
}

// RegularTTF returns the regular TTF data.
func RegularTTF() []byte { return goregular.TTF }

// BoldTTF returns the bold TTF data.
func BoldTTF() []byte { return gobold.TTF }

// Face returns a new face of the given pixel size. Faces keep glyph buffers
// and must not be shared between goroutines; each call returns a fresh one.
func Face(size float64, isBold bool) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	f := regular
	if isBold {
		f = bold
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
}
