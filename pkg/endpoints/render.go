package endpoints

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/render"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils"
)

var trackFormats = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
}

func (m *Manager) renderTelemetry(w http.ResponseWriter, r *http.Request) {
	m.renderPage(w, r, "text/html; charset=utf-8", func(out io.Writer, s *dashboard.Snapshot) error {
		return render.TelemetryPage(out, pageTitle(s), s.Telemetry)
	})
}

func (m *Manager) renderLaps(w http.ResponseWriter, r *http.Request) {
	m.renderPage(w, r, "text/html; charset=utf-8", func(out io.Writer, s *dashboard.Snapshot) error {
		return render.LapScatter(out, pageTitle(s), s.Laps)
	})
}

func (m *Manager) renderStandings(w http.ResponseWriter, r *http.Request) {
	m.renderPage(w, r, "text/html; charset=utf-8", func(out io.Writer, s *dashboard.Snapshot) error {
		return render.StandingsBar(out, "Championship", s.Season)
	})
}

// renderTrack renders the track map, query param format selects png (default) or svg
func (m *Manager) renderTrack(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	contentType, ok := trackFormats[format]
	if !ok {
		writeError(w, fmt.Errorf("%w: unsupported format %q", errBadRequest, format))
		return
	}
	m.renderPage(w, r, contentType, func(out io.Writer, s *dashboard.Snapshot) error {
		if s.Telemetry == nil {
			return render.ErrNothingToRender
		}
		return render.TrackMap(out, s.Telemetry.Track,
			render.WithFormat(format),
			render.WithTitle(s.Selection.Race))
	})
}

func (m *Manager) renderPage(
	w http.ResponseWriter,
	r *http.Request,
	contentType string,
	fn func(io.Writer, *dashboard.Snapshot) error,
) {
	d, ok := m.lookup(w, r)
	if !ok {
		return
	}
	s := d.Snapshot()
	buf := bytes.Buffer{}
	if err := fn(&buf, &s); err != nil {
		if errors.Is(err, render.ErrNothingToRender) {
			err = fmt.Errorf("%w: %w", dashboard.ErrNotFound, err)
		}
		writeError(w, err)
		return
	}
	etag := utils.ContentHash(buf.Bytes())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	//nolint:errcheck // client gone
	w.Write(buf.Bytes())
}

func pageTitle(s *dashboard.Snapshot) string {
	return fmt.Sprintf("%d %s - %s", s.Selection.Year, s.Selection.Race, s.Selection.Session)
}
