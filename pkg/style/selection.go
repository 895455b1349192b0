package style

import (
	"strings"

	"github.com/institutoite/bolivia/pkg/errors"
)

// Mode is the navigation mode of the political map.
type Mode string

const (
	// ModeMenu shows nothing until a mode is picked.
	ModeMenu       Mode = "menu"
	ModeCountry    Mode = "country"
	ModeDepartment Mode = "department"
	ModeProvince   Mode = "province"
)

// ParseMode accepts the English mode names and their Spanish labels.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "menu":
		return ModeMenu, nil
	case "country", "bolivia", "pais", "país":
		return ModeCountry, nil
	case "department", "departamento", "dept":
		return ModeDepartment, nil
	case "province", "provincia", "prov":
		return ModeProvince, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown mode %q", s)
}

// Label is the Spanish display name used in the breadcrumb.
func (m Mode) Label() string {
	switch m {
	case ModeCountry:
		return "bolivia"
	case ModeDepartment:
		return "departamento"
	case ModeProvince:
		return "provincia"
	}
	return string(m)
}

// Selection is the drill-down state. A non-empty ProvID always has a
// non-empty DeptID that is its parent.
type Selection struct {
	Mode   Mode   `json:"mode"`
	DeptID string `json:"dept_id,omitempty"`
	ProvID string `json:"prov_id,omitempty"`
}

// NewSelection starts country-wide with nothing selected.
func NewSelection() Selection {
	return Selection{Mode: ModeCountry}
}

// SetMode enters m and clears both selections.
func (s *Selection) SetMode(m Mode) {
	s.Mode = m
	s.DeptID = ""
	s.ProvID = ""
}

// SelectDepartment focuses a department and clears the province. It is only
// accepted in department or province mode; the mode is kept.
func (s *Selection) SelectDepartment(id string) bool {
	if id == "" || (s.Mode != ModeDepartment && s.Mode != ModeProvince) {
		return false
	}
	s.DeptID = id
	s.ProvID = ""
	return true
}

// SelectProvince focuses a province of the selected department. It is
// rejected, leaving the state unchanged, outside province mode, without a
// department, or when parentOf(id) is not the selected department.
func (s *Selection) SelectProvince(id string, parentOf func(string) string) bool {
	if id == "" || s.Mode != ModeProvince || s.DeptID == "" || parentOf == nil {
		return false
	}
	if parentOf(id) != s.DeptID {
		return false
	}
	s.ProvID = id
	return true
}

// Back pops one level: province, then department, then out of department
// or province mode into country mode. It reports whether anything changed.
func (s *Selection) Back() bool {
	switch {
	case s.ProvID != "":
		s.ProvID = ""
	case s.DeptID != "":
		s.DeptID = ""
	case s.Mode == ModeDepartment || s.Mode == ModeProvince:
		s.SetMode(ModeCountry)
	default:
		return false
	}
	return true
}

// CanGoBack reports whether Back would change the state.
func (s Selection) CanGoBack() bool {
	return s.ProvID != "" || s.DeptID != "" || s.Mode == ModeDepartment || s.Mode == ModeProvince
}
