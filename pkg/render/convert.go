package render

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"

	"github.com/institutoite/bolivia/pkg/errors"
)

// rsvgBinary is the librsvg converter used by the fallback path
// (apt install librsvg2-bin, brew install librsvg).
const rsvgBinary = "rsvg-convert"

// ToPNG renders SVG bytes to PNG with rsvg-convert, zoomed by scale and
// flattened onto the scene background.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if _, err := exec.LookPath(rsvgBinary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "%s not installed", rsvgBinary)
	}
	if scale <= 0 {
		scale = 1
	}
	cmd := exec.Command(rsvgBinary,
		"-f", "png",
		"-z", strconv.FormatFloat(scale, 'f', 2, 64),
		"-b", DefaultBackground,
	)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "%s: %s", rsvgBinary, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
