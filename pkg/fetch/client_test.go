package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

const analyzeOK = `{
  "status": "success",
  "data": {
    "drivers": {
      "VER (L12)": {
        "telemetry": {"distance": [0, 10], "speed": [280, 290]},
        "sectors": [28.1, 30.2, 25.3],
        "lap_time": 83.6,
        "lap_number": 12,
        "tyre_info": {"compound": "SOFT", "symbol": "S", "age": 3}
      },
      "HAM (L3)": {
        "telemetry": {"distance": [0, 10], "speed": [270, 285]},
        "sectors": [28.3, 30.0, 25.4],
        "lap_time": 83.7,
        "lap_number": 3
      }
    },
    "session_best_sectors": [28.1, 30.0, 25.3],
    "track_length": 5412,
    "pole_info": {"driver": "VER", "time": 83.6},
    "weather": {"air_temp": 24.1, "track_temp": 38.5, "humidity": 40, "rain": false}
  },
  "ai_insights": ["VER is faster by 0.100s."]
}`

type fakeService struct {
	srv      *httptest.Server
	requests map[string]*atomic.Int32
	lastURL  atomic.Value
}

func newFakeService(t *testing.T, routes map[string]string) *fakeService {
	t.Helper()
	f := &fakeService{requests: map[string]*atomic.Int32{}}
	mux := http.NewServeMux()
	for path, body := range routes {
		cnt := &atomic.Int32{}
		f.requests[path] = cnt
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			cnt.Add(1)
			f.lastURL.Store(r.URL.String())
			if body == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) client() *Client {
	return New(f.srv.URL, WithHTTPClient(f.srv.Client()))
}

func TestSelectorLists(t *testing.T) {
	f := newFakeService(t, map[string]string{
		"/years":    `{"years": [2022, 2024, 2023]}`,
		"/races":    `{"races": ["Bahrain Grand Prix", "Saudi Arabian Grand Prix"]}`,
		"/sessions": `{"sessions": ["Practice 1", "Qualifying", "Race"]}`,
	})
	c := f.client()
	ctx := context.Background()

	years, err := c.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023, 2022}, years)

	races, err := c.Races(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bahrain Grand Prix", "Saudi Arabian Grand Prix"}, races)

	sessions, err := c.Sessions(ctx, 2024, "Bahrain Grand Prix")
	require.NoError(t, err)
	assert.Equal(t, "Qualifying", model.DefaultSession(sessions))
	assert.Contains(t, f.lastURL.Load(), "race=Bahrain+Grand+Prix")

	// served from cache
	_, _ = c.Races(ctx, 2024)
	assert.Equal(t, int32(1), f.requests["/races"].Load())
	c.InvalidateCaches(ctx)
	_, _ = c.Races(ctx, 2024)
	assert.Equal(t, int32(2), f.requests["/races"].Load())
}

func TestDetailTelemetry(t *testing.T) {
	f := newFakeService(t, map[string]string{"/analyze": analyzeOK})
	c := f.client()

	got, err := c.DetailTelemetry(context.Background(), model.DetailRequest{
		SessionRef: model.SessionRef{Year: 2024, Race: "Bahrain Grand Prix", Session: "Race"},
		Drivers:    []string{"VER", "HAM"},
		Laps:       []model.LapRef{{Driver: "VER", Lap: 12}, {Driver: "HAM", Lap: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VER (L12)", "HAM (L3)"}, got.Drivers.Keys())
	assert.Equal(t, "HAM", got.Drivers[1].Driver)
	assert.Equal(t, []string{"VER is faster by 0.100s."}, got.Insights)
	assert.InDelta(t, 5412.0, got.TrackLength, 1e-9)
	require.NotNil(t, got.Drivers[0].TyreInfo)
	assert.Equal(t, model.CompoundSoft, got.Drivers[0].TyreInfo.Compound)

	last, _ := f.lastURL.Load().(string)
	assert.Contains(t, last, "drivers=VER%2CHAM")
	assert.Contains(t, last, "specific_laps=")

	var laps []model.LapRef
	u, _ := http.NewRequest(http.MethodGet, last, http.NoBody)
	require.NoError(t, json.Unmarshal([]byte(u.URL.Query().Get("specific_laps")), &laps))
	assert.Equal(t, []model.LapRef{{Driver: "VER", Lap: 12}, {Driver: "HAM", Lap: 3}}, laps)
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "service error",
			body:    `{"status": "error", "message": "No data found."}`,
			wantErr: ErrService,
			wantMsg: "No data found.",
		},
		{
			name:    "http error",
			body:    "",
			wantErr: ErrService,
			wantMsg: "The analysis service is not reachable.",
		},
		{
			name:    "no data",
			body:    `{"status": "success", "data": null}`,
			wantErr: ErrNoData,
			wantMsg: "No data available for this selection.",
		},
		{
			name:    "garbage",
			body:    `<html>`,
			wantErr: ErrDecode,
			wantMsg: "The analysis service returned an unexpected response.",
		},
		{
			name:    "drivers not an object",
			body:    `{"status": "success", "data": {"drivers": []}}`,
			wantErr: ErrDecode,
			wantMsg: "The analysis service returned an unexpected response.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeService(t, map[string]string{"/analyze": tt.body})
			_, err := f.client().DetailTelemetry(context.Background(), model.DetailRequest{
				SessionRef: model.SessionRef{Year: 2024, Race: "Monaco Grand Prix", Session: "Qualifying"},
				Drivers:    []string{"LEC"},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestLapDistribution(t *testing.T) {
	f := newFakeService(t, map[string]string{"/race_laps": `{
		"status": "success",
		"data": {
			"laps": [
				{"driver": "VER", "lap_number": 1, "lap_time_seconds": 97.2, "compound": "soft"},
				{"driver": "VER", "lap_number": 2, "lap_time_seconds": 96.1, "compound": "nan"}
			],
			"stints": {"VER": [{"compound": "SOFT", "start": 1, "end": 2}]},
			"race_winner": "Max Verstappen",
			"winner_label": "Winner",
			"weather": {"air_temp": 20, "track_temp": 30, "humidity": 50, "rain": true}
		}
	}`})
	got, err := f.client().LapDistribution(context.Background(), model.LapRequest{
		SessionRef: model.SessionRef{Year: 2024, Race: "Bahrain Grand Prix", Session: "Race"},
		Drivers:    []string{"VER"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.CompoundSoft, got.Laps[0].Compound)
	assert.Equal(t, model.CompoundUnknown, got.Laps[1].Compound)
	assert.Equal(t, "VER", got.Stints["VER"][0].Driver)
	assert.True(t, got.Weather.Rain)
}

func TestStandingsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/standings", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("year") {
		case "2026":
			_, _ = w.Write([]byte(`{"wdc": [], "wcc": []}`))
		case "2025":
			_, _ = w.Write([]byte(`{
				"wdc": [
					{"position": 1, "points": 423, "driver": "norris", "code": "NOR", "name": "Lando Norris", "team": "McLaren"},
					{"position": 2, "points": 421.5, "driver": "max_verstappen", "code": "VER", "name": "Max Verstappen", "team": "Red Bull"}
				],
				"wcc": [{"position": 1, "points": 833, "team": "McLaren", "id": "mclaren"}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL, WithHTTPClient(srv.Client()))

	got, err := c.Standings(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, got.Drivers, 2)
	assert.True(t, got.Drivers[1].Points.IsZero())
	assert.Equal(t, 2, got.Drivers[1].Position)
	assert.Equal(t, "VER", got.Drivers[1].Code)
	assert.True(t, got.Constructors[0].Points.IsZero())

	got, err = c.Standings(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "421.5", got.Drivers[1].Points.String())
}

func TestSchedule(t *testing.T) {
	f := newFakeService(t, map[string]string{"/schedule": `[
		{"round": 1, "name": "Bahrain Grand Prix", "date": "2025-03-02", "is_sprint": false, "is_done": true, "location": "Sakhir"},
		{"round": 2, "name": "Chinese Grand Prix", "date": "TBD", "is_sprint": true, "is_done": false, "location": "Shanghai"}
	]`})
	got, err := f.client().Schedule(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, model.Schedule{got[1]}, got.Upcoming())
	assert.True(t, got[1].IsSprint)
}
