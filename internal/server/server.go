// Package server exposes a map session over HTTP.
//
// Every browser gets a session, identified by a cookie, holding its active
// layers, view and political map. Routes:
//
//	GET    /api/catalog                      grouped catalog
//	GET    /api/session                      session snapshot
//	PUT    /api/layers?url=                  activate a layer
//	DELETE /api/layers?url=                  deactivate a layer
//	PUT    /api/highlight?url=               highlight an active layer
//	GET    /api/labels                       labels at the current view
//	PUT    /api/viewport                     report the client view
//	GET    /api/popup?url=&index=            feature attributes
//	GET    /api/features?url=&bbox=          feature indices in a box
//	GET    /api/regions/{level}              departments or provinces
//	GET    /api/legend                       legend rows
//	GET    /api/styles/{level}/{id}          unit style
//	PUT    /api/styles/{level}/{id}          set unit colors
//	PUT    /api/styles/{level}/{id}/label    pin a region label
//	PUT    /api/params                       global style parameters
//	PUT    /api/halo                         label halo
//	POST   /api/selection/{action}           mode, department, province, back
//	GET    /api/export.{format}              download png, pdf or svg
//
// Errors are JSON objects {"error": CODE, "message": text} with the status
// given by errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/config"
	"github.com/institutoite/bolivia/pkg/pipeline"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/session"
)

// CookieName is the session cookie.
const CookieName = "mapabo_session"

// Options configures a Server. Nil fields get defaults.
type Options struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Runner  *pipeline.Runner
	Store   session.Store
	Logger  *log.Logger
}

// Server serves the map API.
type Server struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	runner  *pipeline.Runner
	store   session.Store
	logger  *log.Logger
	sessCfg session.Config

	baseMu sync.Mutex
	base   *politico.Map
}

// New builds a server.
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore(opts.Config.Server.SessionTTL)
	}
	cfg := opts.Config
	return &Server{
		cfg:     cfg,
		catalog: opts.Catalog,
		runner:  opts.Runner,
		store:   opts.Store,
		logger:  opts.Logger,
		sessCfg: session.Config{
			Labels: cfg.Labels,
			Keys:   cfg.PropKeys(),
			Params: cfg.Style,
			Halo:   cfg.Halo,
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Get("/session", s.handleSession)
			r.Put("/layers", s.handleActivate)
			r.Delete("/layers", s.handleDeactivate)
			r.Put("/highlight", s.handleHighlight)
			r.Get("/labels", s.handleLabels)
			r.Put("/viewport", s.handleViewport)
			r.Get("/popup", s.handlePopup)
			r.Get("/features", s.handleFeatures)

			r.Get("/regions/{level}", s.handleRegions)
			r.Get("/legend", s.handleLegend)
			r.Get("/styles/{level}/{id}", s.handleGetStyle)
			r.Put("/styles/{level}/{id}", s.handlePutStyle)
			r.Put("/styles/{level}/{id}/label", s.handleMoveLabel)
			r.Put("/params", s.handleParams)
			r.Put("/halo", s.handleHalo)
			r.Post("/selection/{action}", s.handleSelection)

			r.Get("/export.{format}", s.handleExport)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept once a minute.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, time.Minute)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Server.Addr, "layers", len(s.catalog.Entries))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.store.Cleanup(ctx); err == nil && n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

// newSession creates a session and installs a political map when a base is
// configured. A base that fails to load leaves the session without one.
func (s *Server) newSession(ctx context.Context) *session.Session {
	sess := session.New(s.catalog, s.runner.Loader, s.sessCfg)
	if m, err := s.politicalMap(ctx); err != nil {
		s.logger.Warn("political base not loaded", "err", err)
	} else if m != nil {
		sess.SetPolitical(m)
		_ = sess.Frame()
	}
	return sess
}

// politicalMap returns a fresh map over the shared political base. The base
// layers are loaded once; a failed load is retried on the next call.
func (s *Server) politicalMap(ctx context.Context) (*politico.Map, error) {
	sc := s.cfg.Server
	if sc.ADM1 == "" || sc.ADM3 == "" {
		return nil, nil
	}
	s.baseMu.Lock()
	defer s.baseMu.Unlock()
	if s.base == nil {
		base, err := pipeline.LoadPolitical(ctx, s.runner.Loader, pipeline.Options{
			ADM1:           sc.ADM1,
			ADM3:           sc.ADM3,
			Capitals:       sc.Capitals,
			Municipalities: sc.Municipalities,
			Keys:           s.sessCfg.Keys,
		}, s.logger)
		if err != nil {
			return nil, err
		}
		s.base = base
	}
	m := politico.New(s.base.Hierarchy)
	m.Capitals = s.base.Capitals
	m.Municipalities = s.base.Municipalities
	return m, nil
}
