// Package fetch is the client of the remote analysis service.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils/cache"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils/cache/loadercache"
)

const maxBodySize = 64 << 20

type (
	Option func(*Client)
	Client struct {
		baseURL  string
		http     *http.Client
		timeout  time.Duration
		cacheTTL time.Duration
		tracer   trace.Tracer
		log      *log.Logger

		years     cache.Cache[struct{}, []string]
		races     cache.Cache[int, []string]
		sessions  cache.Cache[raceKey, []string]
		schedules cache.Cache[int, model.Schedule]
	}
	raceKey struct {
		year int
		race string
	}
)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout limits each request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithCacheTTL sets how long selector lists and schedules are cached
func WithCacheTTL(d time.Duration) Option {
	return func(cl *Client) {
		cl.cacheTTL = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.log = l
	}
}

func New(baseURL string, opts ...Option) *Client {
	ret := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  30 * time.Second,
		cacheTTL: 10 * time.Minute,
		tracer:   otel.Tracer("bta"),
		log:      log.Default().Named("fetch"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.http == nil {
		ret.http = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	cl := ret.log.Named("cache")
	ret.years = loadercache.New(
		loadercache.WithLoader[struct{}, []string](func(ctx context.Context, _ struct{}) (*[]string, error) {
			return ret.loadList(ctx, "/years", nil, "years")
		}),
		loadercache.WithExpiration[struct{}, []string](ret.cacheTTL),
		loadercache.WithLogger[struct{}, []string](cl),
	)
	ret.races = loadercache.New(
		loadercache.WithLoader[int, []string](func(ctx context.Context, year int) (*[]string, error) {
			return ret.loadList(ctx, "/races", url.Values{"year": {strconv.Itoa(year)}}, "races")
		}),
		loadercache.WithExpiration[int, []string](ret.cacheTTL),
		loadercache.WithLogger[int, []string](cl),
	)
	ret.sessions = loadercache.New(
		loadercache.WithLoader[raceKey, []string](func(ctx context.Context, k raceKey) (*[]string, error) {
			return ret.loadList(ctx, "/sessions",
				url.Values{"year": {strconv.Itoa(k.year)}, "race": {k.race}}, "sessions")
		}),
		loadercache.WithExpiration[raceKey, []string](ret.cacheTTL),
		loadercache.WithLogger[raceKey, []string](cl),
	)
	ret.schedules = loadercache.New(
		loadercache.WithLoader[int, model.Schedule](ret.loadSchedule),
		loadercache.WithExpiration[int, model.Schedule](ret.cacheTTL),
		loadercache.WithLogger[int, model.Schedule](cl),
	)
	return ret
}

// Years returns the available seasons, newest first
func (c *Client) Years(ctx context.Context) ([]int, error) {
	ctx, span := c.tracer.Start(ctx, "fetch.Years")
	defer span.End()
	res, err := c.years.Get(ctx, struct{}{})
	if err != nil {
		return nil, c.fail(span, err)
	}
	ret := make([]int, 0, len(*res))
	for _, s := range *res {
		y, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			c.log.Warn("ignore invalid year", log.String("year", s))
			continue
		}
		ret = append(ret, y)
	}
	ret = lo.Uniq(ret)
	sort.Sort(sort.Reverse(sort.IntSlice(ret)))
	return ret, nil
}

func (c *Client) Races(ctx context.Context, year int) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "fetch.Races",
		trace.WithAttributes(attribute.Int("year", year)))
	defer span.End()
	res, err := c.races.Get(ctx, year)
	if err != nil {
		return nil, c.fail(span, err)
	}
	return *res, nil
}

func (c *Client) Sessions(ctx context.Context, year int, race string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "fetch.Sessions",
		trace.WithAttributes(attribute.Int("year", year), attribute.String("race", race)))
	defer span.End()
	res, err := c.sessions.Get(ctx, raceKey{year: year, race: race})
	if err != nil {
		return nil, c.fail(span, err)
	}
	return *res, nil
}

// LapDistribution fetches laps and stints of the requested drivers
func (c *Client) LapDistribution(ctx context.Context, req model.LapRequest) (
	*model.LapDistribution, error,
) {
	ctx, span := c.tracer.Start(ctx, "fetch.LapDistribution",
		trace.WithAttributes(sessionAttrs(req.SessionRef, req.Drivers)...))
	defer span.End()
	body, err := c.get(ctx, "/race_laps", sessionParams(req.SessionRef, req.Drivers))
	if err != nil {
		return nil, c.fail(span, err)
	}
	ret := &model.LapDistribution{}
	if _, err := decodeEnvelope(body, ret); err != nil {
		return nil, c.fail(span, err)
	}
	ret.Normalize()
	span.SetAttributes(attribute.Int("laps", len(ret.Laps)))
	return ret, nil
}

// DetailTelemetry fetches the detailed telemetry for explicit laps or,
// without laps, for the fastest lap of each driver
func (c *Client) DetailTelemetry(ctx context.Context, req model.DetailRequest) (
	*model.DetailTelemetry, error,
) {
	ctx, span := c.tracer.Start(ctx, "fetch.DetailTelemetry",
		trace.WithAttributes(sessionAttrs(req.SessionRef, req.Drivers)...))
	defer span.End()
	span.SetAttributes(attribute.Int("laps", len(req.Laps)))

	params := sessionParams(req.SessionRef, req.Drivers)
	if len(req.Laps) > 0 {
		laps, err := json.Marshal(req.Laps)
		if err != nil {
			return nil, c.fail(span, err)
		}
		params.Set("specific_laps", string(laps))
	}
	body, err := c.get(ctx, "/analyze", params)
	if err != nil {
		return nil, c.fail(span, err)
	}
	ret := &model.DetailTelemetry{}
	env, err := decodeEnvelope(body, ret)
	if err != nil {
		return nil, c.fail(span, err)
	}
	if len(ret.Drivers) == 0 {
		return nil, c.fail(span, ErrNoData)
	}
	if len(env.Insights) > 0 {
		ret.Insights = env.Insights
	}
	return ret, nil
}

// Standings returns the championship standings of year. If the season has
// no standings yet those of the previous season are used with points reset.
func (c *Client) Standings(ctx context.Context, year int) (*model.Standings, error) {
	ctx, span := c.tracer.Start(ctx, "fetch.Standings",
		trace.WithAttributes(attribute.Int("year", year)))
	defer span.End()
	ret, err := c.loadStandings(ctx, year)
	if err != nil {
		return nil, c.fail(span, err)
	}
	if len(ret.Drivers) > 0 && len(ret.Constructors) > 0 {
		return ret, nil
	}
	prev, err := c.loadStandings(ctx, year-1)
	if err != nil {
		c.log.Warn("no fallback standings", log.Int("year", year-1), log.ErrorField(err))
		return ret, nil
	}
	span.AddEvent("fallback to previous season")
	if len(ret.Drivers) == 0 {
		ret.Drivers = lo.Map(prev.Drivers, func(d model.DriverStanding, i int) model.DriverStanding {
			d.Points = decimal.Zero
			d.Position = i + 1
			return d
		})
	}
	if len(ret.Constructors) == 0 {
		ret.Constructors = lo.Map(prev.Constructors,
			func(t model.ConstructorStanding, i int) model.ConstructorStanding {
				t.Points = decimal.Zero
				t.Position = i + 1
				return t
			})
	}
	return ret, nil
}

func (c *Client) Schedule(ctx context.Context, year int) (model.Schedule, error) {
	ctx, span := c.tracer.Start(ctx, "fetch.Schedule",
		trace.WithAttributes(attribute.Int("year", year)))
	defer span.End()
	res, err := c.schedules.Get(ctx, year)
	if err != nil {
		return nil, c.fail(span, err)
	}
	return *res, nil
}

// InvalidateCaches drops all cached selector lists and schedules
func (c *Client) InvalidateCaches(ctx context.Context) {
	c.years.InvalidateAll(ctx)
	c.races.InvalidateAll(ctx)
	c.sessions.InvalidateAll(ctx)
	c.schedules.InvalidateAll(ctx)
}

func (c *Client) loadStandings(ctx context.Context, year int) (*model.Standings, error) {
	body, err := c.get(ctx, "/standings", url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, err
	}
	ret := &model.Standings{}
	if err := json.Unmarshal(body, ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return ret, nil
}

func (c *Client) loadSchedule(ctx context.Context, year int) (*model.Schedule, error) {
	body, err := c.get(ctx, "/schedule", url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, err
	}
	ret := model.Schedule{}
	if err := json.Unmarshal(body, &ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &ret, nil
}

// loadList reads responses like {"races": ["Bahrain Grand Prix", ...]}.
// Entries are converted to strings since years arrive as numbers.
func (c *Client) loadList(ctx context.Context, path string, params url.Values, key string) (
	*[]string, error,
) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	raw := map[string][]json.RawMessage{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	ret := make([]string, 0, len(raw[key]))
	for _, item := range raw[key] {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			ret = append(ret, s)
			continue
		}
		ret = append(ret, string(item))
	}
	return &ret, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("response",
		log.String("path", path),
		log.Int("status", resp.StatusCode),
		log.Duration("took", time.Since(start)))
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: path}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func sessionParams(s model.SessionRef, drivers []string) url.Values {
	return url.Values{
		"year":    {strconv.Itoa(s.Year)},
		"race":    {s.Race},
		"session": {s.Session},
		"drivers": {strings.Join(drivers, ",")},
	}
}

func sessionAttrs(s model.SessionRef, drivers []string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("year", s.Year),
		attribute.String("race", s.Race),
		attribute.String("session", s.Session),
		attribute.StringSlice("drivers", drivers),
	}
}
