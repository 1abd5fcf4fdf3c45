// Package endpoints exposes viewer sessions over HTTP. Every session owns a
// dashboard; actions return the resulting snapshot, live updates are
// pushed over a websocket.
package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils"
)

// Factory creates the dashboard of a new viewer session
type Factory func() *dashboard.Dashboard

type Option func(*Manager)

func WithLookup(l *utils.SessionLookup[*dashboard.Dashboard]) Option {
	return func(m *Manager) {
		m.sessions = l
	}
}

// WithRequestTimeout limits the time an action may spend on remote calls
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithOriginPatterns sets the hosts allowed to open live connections
// besides the own host
func WithOriginPatterns(patterns ...string) Option {
	return func(m *Manager) {
		m.origins = patterns
	}
}

type Manager struct {
	factory  Factory
	sessions *utils.SessionLookup[*dashboard.Dashboard]
	timeout  time.Duration
	origins  []string
	log      *log.Logger
}

type endpoint struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

func NewManager(factory Factory, opts ...Option) *Manager {
	ret := &Manager{
		factory: factory,
		timeout: 60 * time.Second,
		log:     log.Default().Named("endpoints"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.sessions == nil {
		ret.sessions = utils.NewSessionLookup[*dashboard.Dashboard]()
	}
	return ret
}

// sessionEndpoints are mounted below /api/sessions/{id}
func (m *Manager) sessionEndpoints() []endpoint {
	return []endpoint{
		{http.MethodGet, "/", m.getSnapshot},
		{http.MethodDelete, "/", m.deleteSession},
		{http.MethodPost, "/year", action(m, selectYear)},
		{http.MethodPost, "/race", action(m, selectRace)},
		{http.MethodPost, "/session", action(m, selectSession)},
		{http.MethodPost, "/drivers", action(m, setDrivers)},
		{http.MethodPost, "/load", action(m, load)},
		{http.MethodPost, "/laps/toggle", action(m, toggleLap)},
		{http.MethodPost, "/clear", action(m, clearData)},
		{http.MethodPost, "/hover", action(m, setHover)},
		{http.MethodDelete, "/hover", action(m, clearHover)},
		{http.MethodPost, "/zoom", action(m, zoomChart)},
		{http.MethodPost, "/pan", action(m, panChart)},
		{http.MethodPost, "/zoom/reset", action(m, resetZoom)},
		{http.MethodPost, "/season", action(m, loadSeason)},
		{http.MethodPost, "/predictions", action(m, predict)},
		{http.MethodDelete, "/predictions", action(m, clearPredictions)},
		{http.MethodGet, "/render/telemetry.html", m.renderTelemetry},
		{http.MethodGet, "/render/laps.html", m.renderLaps},
		{http.MethodGet, "/render/standings.html", m.renderStandings},
		{http.MethodGet, "/render/track", m.renderTrack},
		{http.MethodGet, "/live", m.live},
	}
}

// Handler returns the http handler serving all endpoints
func (m *Manager) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(m.requestLogger)

	r.Get("/version", getVersion)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", m.createSession)
		r.Get("/", m.listSessions)
		r.Route("/{id}", func(r chi.Router) {
			for _, e := range m.sessionEndpoints() {
				m.log.Debug("register endpoint",
					log.String("method", e.method),
					log.String("pattern", e.pattern))
				r.Method(e.method, e.pattern, e.handler)
			}
		})
	})
	return r
}

// SweepStale closes and removes sessions idle longer than the stale duration
func (m *Manager) SweepStale() int {
	stale := m.sessions.RemoveStale()
	for _, d := range stale {
		d.Close()
	}
	return len(stale)
}

// RunSweeper calls SweepStale every interval until ctx is done
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.SweepStale(); n > 0 {
				m.log.Info("removed stale sessions", log.Int("count", n))
			}
		}
	}
}

// Shutdown closes all sessions
func (m *Manager) Shutdown() {
	for _, id := range m.sessions.IDs() {
		if d, ok := m.sessions.Remove(id); ok {
			d.Close()
		}
	}
}

func (m *Manager) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		m.log.Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", ww.Status()),
			log.Duration("duration", time.Since(start)),
			log.String("reqId", middleware.GetReqID(r.Context())))
	})
}
