package props

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxPopupEntries caps the attribute list shown for one feature.
const MaxPopupEntries = 20

// Default is the table set used by the package-level helpers.
var Default = DefaultKeys()

// Stringify renders a decoded JSON value the way it is displayed: numbers in
// shortest form, objects and arrays as JSON. It reports false for nil.
func Stringify(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// usable trims s and rejects the empty string and the literal null/na
// placeholders common in exported shapefiles.
func usable(v any) (string, bool) {
	s, ok := Stringify(v)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "na":
		return "", false
	}
	return s, true
}

// ExtractName returns the display name of a feature, or "" when none of the
// label or name candidates holds a usable value.
func (k *Keys) ExtractName(p map[string]any) string {
	for _, list := range [][]string{k.Label, k.Name} {
		for _, key := range list {
			v, ok := p[key]
			if !ok {
				continue
			}
			if s, ok := usable(v); ok {
				return s
			}
		}
	}
	return ""
}

// ExtractName uses the default tables.
func ExtractName(p map[string]any) string { return Default.ExtractName(p) }

// truthy mirrors loose truthiness of decoded JSON: nil, "", 0 and false are
// empty.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case int:
		return v != 0
	case bool:
		return v
	}
	return true
}

func (k *Keys) first(p map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		if v := p[key]; truthy(v) {
			s, _ := Stringify(v)
			return s, true
		}
	}
	return "", false
}

// UnnamedRegion is the name given to regions without any name property.
const UnnamedRegion = "SinNombre"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s and collapses every run of characters outside [a-z0-9]
// to a single underscore.
func Slug(s string) string {
	return slugRe.ReplaceAllString(strings.ToLower(s), "_")
}

// RegionIdentity returns the stable id and display name of an administrative
// unit. The id falls back to the slug of the name.
func (k *Keys) RegionIdentity(p map[string]any) (id, name string) {
	name, ok := k.first(p, k.RegionName)
	if !ok {
		name = UnnamedRegion
	}
	if id, ok = k.first(p, k.RegionID); ok {
		return id, name
	}
	return Slug(name), name
}

// Entry is one displayable attribute.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Href  string `json:"href,omitempty"`
	rank  int
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// FormatValue shortens links: the scheme is dropped and text longer than 40
// characters is cut to 37 plus an ellipsis. href is set for links only.
func FormatValue(s string) (text, href string) {
	s = strings.TrimSpace(s)
	if !schemeRe.MatchString(s) {
		return s, ""
	}
	text = schemeRe.ReplaceAllString(s, "")
	if r := []rune(text); len(r) > 40 {
		text = string(r[:37]) + "…"
	}
	return text, s
}

// Popup builds the attribute list for a feature: hidden keys and empty values
// dropped, keys aliased, sorted by label rank then label, at most
// MaxPopupEntries entries.
func (k *Keys) Popup(p map[string]any) []Entry {
	entries := make([]Entry, 0, len(p))
	for key, v := range p {
		if k.IsHidden(key) {
			continue
		}
		s, ok := usable(v)
		if !ok {
			continue
		}
		label := k.HumanLabel(key)
		text, href := FormatValue(s)
		entries = append(entries, Entry{Key: key, Label: label, Value: text, Href: href, rank: k.Rank(label)})
	}

	col := collate.New(language.Spanish)
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if c := col.CompareString(a.Label, b.Label); c != 0 {
			return c < 0
		}
		return a.Key < b.Key
	})

	if len(entries) > MaxPopupEntries {
		entries = entries[:MaxPopupEntries]
	}
	return entries
}

// Popup uses the default tables.
func Popup(p map[string]any) []Entry { return Default.Popup(p) }
