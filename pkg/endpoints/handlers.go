package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/championship"
	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils"
	"github.com/mpapenbr/beyond-the-apex/version"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

// action bodies are small JSON parameter objects
const maxRequestBody = 64 << 10

type (
	yearParam struct {
		Year int `json:"year"`
	}
	nameParam struct {
		Name string `json:"name"`
	}
	driversParam struct {
		Drivers string `json:"drivers"`
	}
	toggleParam struct {
		Driver string `json:"driver"`
		Lap    int    `json:"lap"`
		Index  *int   `json:"index"`
	}
	hoverParam struct {
		Index    *int     `json:"index"`
		Distance *float64 `json:"distance"`
	}
	zoomParam struct {
		Chart string  `json:"chart"`
		From  float64 `json:"from"`
		To    float64 `json:"to"`
		Delta float64 `json:"delta"`
	}
	predictParam struct {
		Round  int    `json:"round"`
		Sprint bool   `json:"sprint"`
		Pos    int    `json:"pos"`
		Driver string `json:"driver"`
	}
	roundParam struct {
		Round int `json:"round"`
	}
	none struct{}
)

type (
	// applyFunc runs an action with the decoded request body on a dashboard
	applyFunc[P any] func(ctx context.Context, d *dashboard.Dashboard, p P) error
)

// action builds a handler decoding the body into P, applying it to the
// session's dashboard and replying with the resulting snapshot.
func action[P any](m *Manager, apply applyFunc[P]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := m.lookup(w, r)
		if !ok {
			return
		}
		var p P
		// an empty body leaves P at its zero value
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, fmt.Errorf("%w: limit %d bytes", errTooLarge, tooLarge.Limit))
				return
			}
			writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()
		if err := apply(ctx, d, p); err != nil {
			m.log.Debug("action failed", log.String("path", r.URL.Path), log.ErrorField(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Snapshot())
	}
}

func selectYear(ctx context.Context, d *dashboard.Dashboard, p yearParam) error {
	return d.SelectYear(ctx, p.Year)
}

func selectRace(ctx context.Context, d *dashboard.Dashboard, p nameParam) error {
	return d.SelectRace(ctx, p.Name)
}

func selectSession(_ context.Context, d *dashboard.Dashboard, p nameParam) error {
	return d.SelectSession(p.Name)
}

func setDrivers(_ context.Context, d *dashboard.Dashboard, p driversParam) error {
	d.SetDrivers(p.Drivers)
	return nil
}

func load(ctx context.Context, d *dashboard.Dashboard, _ none) error {
	return d.Load(ctx)
}

func toggleLap(ctx context.Context, d *dashboard.Dashboard, p toggleParam) error {
	if p.Index != nil {
		return d.ToggleLapAt(ctx, *p.Index)
	}
	return d.ToggleLap(ctx, p.Driver, p.Lap)
}

func clearData(_ context.Context, d *dashboard.Dashboard, _ none) error {
	d.ClearData()
	return nil
}

func setHover(_ context.Context, d *dashboard.Dashboard, p hoverParam) error {
	switch {
	case p.Index != nil:
		d.HoverAt(*p.Index)
	case p.Distance != nil:
		d.HoverDistance(*p.Distance)
	default:
		return fmt.Errorf("%w: index or distance required", errBadRequest)
	}
	return nil
}

func clearHover(_ context.Context, d *dashboard.Dashboard, _ none) error {
	d.ClearHover()
	return nil
}

func zoomChart(_ context.Context, d *dashboard.Dashboard, p zoomParam) error {
	return d.Zoom(p.Chart, p.From, p.To)
}

func panChart(_ context.Context, d *dashboard.Dashboard, p zoomParam) error {
	return d.Pan(p.Chart, p.Delta)
}

func resetZoom(_ context.Context, d *dashboard.Dashboard, _ none) error {
	d.ResetZoom()
	return nil
}

func loadSeason(ctx context.Context, d *dashboard.Dashboard, p yearParam) error {
	return d.LoadSeason(ctx, p.Year)
}

func predict(_ context.Context, d *dashboard.Dashboard, p predictParam) error {
	kind := championship.KindRace
	if p.Sprint {
		kind = championship.KindSprint
	}
	return d.Predict(p.Round, kind, p.Pos, p.Driver)
}

func clearPredictions(_ context.Context, d *dashboard.Dashboard, p roundParam) error {
	return d.ClearPredictions(p.Round)
}

type sessionCreated struct {
	ID       string             `json:"id"`
	Snapshot dashboard.Snapshot `json:"snapshot"`
}

func (m *Manager) createSession(w http.ResponseWriter, r *http.Request) {
	d := m.factory()
	ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
	defer cancel()
	// a failed init is shown in the snapshot, the session stays usable
	if err := d.Init(ctx); err != nil {
		m.log.Warn("session init failed", log.ErrorField(err))
	}
	id := m.sessions.Add(d)
	m.log.Info("session created", log.String("id", id))
	writeJSON(w, http.StatusCreated, sessionCreated{ID: id, Snapshot: d.Snapshot()})
}

func (m *Manager) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": m.sessions.IDs()})
}

func (m *Manager) getSnapshot(w http.ResponseWriter, r *http.Request) {
	d, ok := m.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

func (m *Manager) deleteSession(w http.ResponseWriter, r *http.Request) {
	d, ok := m.sessions.Remove(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, utils.ErrSessionNotFound)
		return
	}
	d.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Manager) lookup(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	d, err := m.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return d, true
}

func getVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ownVersion": version.Version,
		"full":       version.FullVersion,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps errors to http status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, utils.ErrSessionNotFound),
		errors.Is(err, dashboard.ErrNotFound),
		errors.Is(err, fetch.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, championship.ErrUnknownRound),
		errors.Is(err, championship.ErrRoundDone),
		errors.Is(err, championship.ErrNoSprint),
		errors.Is(err, championship.ErrInvalidPosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	status := statusOf(err)
	if status == http.StatusBadGateway || errors.Is(err, fetch.ErrNoData) {
		msg = fetch.Message(err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("write response", log.ErrorField(err))
	}
}
