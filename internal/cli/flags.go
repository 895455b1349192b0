package cli

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/errors"
)

// parseCenter reads "lon,lat". An empty string means no center.
func parseCenter(s string) (*orb.Point, error) {
	if s == "" {
		return nil, nil
	}
	lon, lat, ok := strings.Cut(s, ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "center must be lon,lat, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid longitude %q", lon)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid latitude %q", lat)
	}
	if x < -180 || x > 180 || y < -90 || y > 90 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "center %g,%g out of range", x, y)
	}
	return &orb.Point{x, y}, nil
}

// parseSize reads "WIDTHxHEIGHT". An empty string yields zeros so the
// pipeline defaults apply.
func parseSize(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "size must be WIDTHxHEIGHT, got %q", s)
	}
	width, werr := strconv.Atoi(strings.TrimSpace(ws))
	height, herr := strconv.Atoi(strings.TrimSpace(hs))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid size %q", s)
	}
	return width, height, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
