package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/pipeline"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Groups())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
}

type layerResponse struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Group    string `json:"group"`
	Features int    `json:"features"`
	Points   int    `json:"points"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("url")
	if key == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing url parameter"))
		return
	}
	l, err := sessionFrom(r).ActivateLayer(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layerResponse{
		URL:      l.ID,
		Name:     l.Name,
		Group:    l.Group,
		Features: len(l.Features),
		Points:   l.PointCount,
	})
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if !sessionFrom(r).DeactivateLayer(url) {
		writeError(w, errors.New(errors.ErrCodeLayerNotFound, "layer %s is not active", url))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Highlight(r.URL.Query().Get("url")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type labelsResponse struct {
	label.Resolution
	Regions []politico.RegionLabel `json:"regions,omitempty"`
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	resp := labelsResponse{Resolution: sess.Labels()}
	v := sess.View()
	_ = sess.Political(func(m *politico.Map) error {
		resp.Regions = m.RegionLabels(v)
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var v viewport.Viewport
	if err := decodeJSON(r, &v); err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	if err := sess.SetView(v); err != nil {
		writeError(w, err)
		return
	}
	s.handleLabels(w, r)
}

func (s *Server) handlePopup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idx, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid feature index %q", q.Get("index")))
		return
	}
	entries, err := sessionFrom(r).Popup(q.Get("url"), idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := parseBBox(q.Get("bbox"))
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := sessionFrom(r).FeaturesIn(q.Get("url"), b)
	if err != nil {
		writeError(w, err)
		return
	}
	if idx == nil {
		idx = []int{}
	}
	writeJSON(w, http.StatusOK, map[string][]int{"features": idx})
}

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.New(errors.ErrCodeInvalidInput, "bbox must be minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, errors.New(errors.ErrCodeInvalidInput, "invalid bbox value %q", p)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New(errors.ErrCodeInvalidInput, "bbox minimum exceeds maximum")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

type regionsResponse struct {
	Level  region.Level  `json:"level"`
	Nodes  []region.Node `json:"nodes"`
	Active bool          `json:"active"`
}

// handleRegions lists the selection buttons of a level.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	level, err := region.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, err)
		return
	}
	var resp regionsResponse
	err = sessionFrom(r).Political(func(m *politico.Map) error {
		depts, provs := m.Buttons()
		resp.Level = level
		switch level {
		case region.ADM1:
			resp.Nodes = depts
		case region.ADM3:
			resp.Nodes = provs
		default:
			return errors.New(errors.ErrCodeInvalidLevel, "level %s has no regions", level)
		}
		resp.Active = m.Engine.Active.Level == level
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Nodes == nil {
		resp.Nodes = []region.Node{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	var rows []politico.LegendRow
	err := sessionFrom(r).Political(func(m *politico.Map) error {
		rows = m.Legend()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []politico.LegendRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type styleResponse struct {
	Level region.Level `json:"level"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	style.Style
	Paint style.Paint `json:"paint"`
}

func unitStyle(m *politico.Map, level region.Level, id string) (styleResponse, error) {
	st, ok := m.Engine.State.Get(level, id)
	if !ok {
		return styleResponse{}, errors.New(errors.ErrCodeRegionNotFound, "no %s unit with id %q", level, id)
	}
	return styleResponse{
		Level: level,
		ID:    id,
		Name:  m.Hierarchy.Name(level, id),
		Style: st,
		Paint: m.Engine.Compute(level, id),
	}, nil
}

func (s *Server) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	level, err := region.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var resp styleResponse
	err = sessionFrom(r).Political(func(m *politico.Map) error {
		st, err := unitStyle(m, level, id)
		resp = st
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type colorsRequest struct {
	Fill   *string `json:"fill"`
	Stroke *string `json:"stroke"`
	Text   *string `json:"text"`
}

// handlePutStyle makes the unit active and sets the given colors on it.
func (s *Server) handlePutStyle(w http.ResponseWriter, r *http.Request) {
	level, err := region.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req colorsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	colors := []struct {
		field string
		value *string
	}{
		{style.FieldFill, req.Fill},
		{style.FieldStroke, req.Stroke},
		{style.FieldText, req.Text},
	}
	for _, c := range colors {
		if c.value == nil {
			continue
		}
		if err := errors.ValidateColor(*c.value); err != nil {
			writeError(w, err)
			return
		}
	}
	id := chi.URLParam(r, "id")
	var resp styleResponse
	err = sessionFrom(r).Political(func(m *politico.Map) error {
		if _, ok := m.Hierarchy.Node(level, id); !ok {
			return errors.New(errors.ErrCodeRegionNotFound, "no %s unit with id %q", level, id)
		}
		m.Engine.SetActive(level, id)
		for _, c := range colors {
			if c.value == nil {
				continue
			}
			if err := m.Engine.SetColor(c.field, *c.value); err != nil {
				return err
			}
		}
		st, err := unitStyle(m, level, id)
		resp = st
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type labelPosRequest struct {
	// Position is lon/lat; null restores the computed position.
	Position *orb.Point `json:"position"`
}

func (s *Server) handleMoveLabel(w http.ResponseWriter, r *http.Request) {
	level, err := region.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req labelPosRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	err = sessionFrom(r).Political(func(m *politico.Map) error {
		if req.Position == nil {
			return m.Engine.State.SetLabelPos(level, id, nil)
		}
		return m.MoveLabel(level, id, *req.Position)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paramsRequest struct {
	Opacity         *float64 `json:"opacity"`
	StrokeWidth     *float64 `json:"stroke_width"`
	RestAttenuation *float64 `json:"rest_attenuation"`
	DeptAttenuation *float64 `json:"dept_attenuation"`
	StrokeOverride  *string  `json:"stroke_override"`
}

// handleParams updates the global parameters. Out-of-range values are
// clamped.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req paramsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var out style.Params
	err := sessionFrom(r).Political(func(m *politico.Map) error {
		p := m.Engine.Params
		if req.StrokeOverride != nil {
			if err := p.SetStrokeOverride(*req.StrokeOverride); err != nil {
				return err
			}
		}
		if req.Opacity != nil {
			p.SetOpacity(*req.Opacity)
		}
		if req.StrokeWidth != nil {
			p.SetStrokeWidth(*req.StrokeWidth)
		}
		if req.RestAttenuation != nil {
			p.SetRestAttenuation(*req.RestAttenuation)
		}
		if req.DeptAttenuation != nil {
			p.SetDeptAttenuation(*req.DeptAttenuation)
		}
		m.Engine.Params = p
		out = p
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHalo(w http.ResponseWriter, r *http.Request) {
	var h style.Halo
	if err := decodeJSON(r, &h); err != nil {
		writeError(w, err)
		return
	}
	if h.Color != "" {
		if err := errors.ValidateColor(h.Color); err != nil {
			writeError(w, err)
			return
		}
	}
	if h.Width < 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "halo width %d is negative", h.Width))
		return
	}
	err := sessionFrom(r).Political(func(m *politico.Map) error {
		m.Engine.Halo = h
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

type selectionRequest struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

// handleSelection drives the drill-down. Actions: mode, department,
// province and back. The view is reframed on the new focus.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	var req selectionRequest
	if action != "back" {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	sess := sessionFrom(r)
	err := sess.Political(func(m *politico.Map) error {
		switch action {
		case "mode":
			mode, err := style.ParseMode(req.Mode)
			if err != nil {
				return err
			}
			m.SetMode(mode)
		case "department", "province":
			level := region.ADM1
			if action == "province" {
				level = region.ADM3
			}
			if _, ok := m.Hierarchy.Node(level, req.ID); !ok {
				return errors.New(errors.ErrCodeRegionNotFound, "no %s with id %q", action, req.ID)
			}
			m.Click(level, req.ID)
		case "back":
			m.Back()
		default:
			return errors.New(errors.ErrCodeInvalidInput, "unknown selection action %q", action)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	_ = sess.Frame()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleExport renders the session's current scene. ?refresh=1 bypasses
// the artifact cache.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	ex := s.cfg.Export
	opts := pipeline.Options{
		Formats: []string{string(f)},
		Scale:   ex.Scale,
		MaxSide: ex.MaxSide,
		Refresh: r.URL.Query().Get("refresh") != "",
		Logger:  s.logger,
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), sessionFrom(r).Scene(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "mapa."+string(f)))
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(artifacts[string(f)])
}
