package catalog

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	extRe   = regexp.MustCompile(`\.[^.]+$`)
	splitRe = regexp.MustCompile(`[-_.]+`)

	regionCodes = set("bo", "bol", "scz", "lpz", "cbb", "cbba", "oru", "ben", "pnd", "tja", "chu", "pt",
		"potosi", "potosí", "pando", "lapaz", "la", "paz")
	noiseTokens = set("geojson", "json", "topojson", "shp", "1m", "5m", "10m", "20m", "50k", "100k", "250k", "500k")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// Humanize turns a data file name into a readable title:
// "scz_centros_salud_50k.geojson" becomes "Centros Salud".
// A leading region code is dropped only when other tokens remain.
func Humanize(fileName string) string {
	base := extRe.ReplaceAllString(fileName, "")
	var parts []string
	for _, p := range splitRe.Split(base, -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 && regionCodes[strings.ToLower(parts[0])] {
		parts = parts[1:]
	}
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if noiseTokens[strings.ToLower(p)] {
			continue
		}
		r := []rune(strings.ToLower(p))
		r[0] = unicode.ToUpper(r[0])
		words = append(words, string(r))
	}
	if pretty := strings.Join(words, " "); pretty != "" {
		return pretty
	}
	return fileName
}
