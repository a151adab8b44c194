package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiov64/Filter-UAS-Zones/internal/config"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"
)

const zones = `{
  "type": "FeatureCollection",
  "title": "Italy",
  "description": "Zones",
  "features": [
    {"identifier": "A", "name": "Duomo", "otherReasonInfo": "NFZ",
     "applicability": [{"startDateTime": "2024-01-01T00:00:00Z", "endDateTime": "2024-12-31T23:59:59Z"}],
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL", "upperLimit": 120, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[9.15,45.44],[9.25,45.44],[9.25,45.48],[9.15,45.48],[9.15,45.44]]]}}]},
    {"identifier": "B", "name": "Roma", "otherReasonInfo": "ATM09",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL", "upperLimit": 60, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[12.4,41.8],[12.6,41.8],[12.6,42.0],[12.4,42.0],[12.4,41.8]]]}}]}
  ]
}`

const (
	milan = `{"lat": 45.4642, "lon": 9.19, "radius": 5000}`
	italy = `{"lat": 45.4642, "lon": 9.19, "radius": 1000000}`
	ocean = `{"lat": 40, "lon": -30, "radius": 1000}`
)

type fixture struct {
	ctx     *ServerContext
	handler http.Handler
	output  string
	quit    chan struct{}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	original, err := geozone.Decode(strings.NewReader(zones))
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "filtered.json")
	engine := config.Engine{Policy: matcher.GeodeticCentroid, Transform: processor.Strip}
	quit := make(chan struct{}, 2)

	ctx := NewServerContext(NewSession(original, engine, output), cfg, func() { quit <- struct{}{} })
	return &fixture{ctx: ctx, handler: ctx.Routes(), output: output, quit: quit}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) StatusResponse {
	t.Helper()
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFilterSavesResult(t *testing.T) {
	f := newFixture(t, &config.Config{})

	rec := f.do(http.MethodPost, "/filter", milan)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, StatusOK, resp.Status)
	require.NotNil(t, resp.Counts)
	assert.Equal(t, processor.Counts{Total: 1, NFZ: 1}, *resp.Counts)

	saved, err := geozone.Load(f.output)
	require.NoError(t, err)
	require.Len(t, saved.Features, 1)
	assert.Equal(t, "A", saved.Features[0].Identifier)
	assert.False(t, saved.Features[0].Has(geozone.KeyApplicability))

	rec = f.do(http.MethodGet, "/api/geozones", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	served, err := geozone.Decode(rec.Body)
	require.NoError(t, err)
	assert.Len(t, served.Features, 1)
}

func TestFilterEmptyKeepsState(t *testing.T) {
	f := newFixture(t, &config.Config{})

	_, err := os.Stat(f.output)
	require.ErrorIs(t, err, os.ErrNotExist)

	rec := f.do(http.MethodPost, "/filter", ocean)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"empty"}`, rec.Body.String())
	_, err = os.Stat(f.output)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, f.ctx.Session.Current())

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/filter", milan).Code)
	before, err := os.ReadFile(f.output)
	require.NoError(t, err)
	current := f.ctx.Session.Current()

	rec = f.do(http.MethodPost, "/filter", ocean)
	assert.Equal(t, StatusEmpty, decodeStatus(t, rec).Status)

	after, err := os.ReadFile(f.output)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Same(t, current, f.ctx.Session.Current())
}

func TestReset(t *testing.T) {
	f := newFixture(t, &config.Config{})

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/filter", milan).Code)
	shown, _ := f.ctx.Session.Shown()
	assert.Len(t, shown.Features, 1)

	rec := f.do(http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Nil(t, f.ctx.Session.Current())
	shown, _ = f.ctx.Session.Shown()
	assert.Len(t, shown.Features, 2)

	// The artifact of the last filter stays on disk.
	_, err := os.Stat(f.output)
	assert.NoError(t, err)
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t, &config.Config{Zoom: 7})

	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Duomo")
	assert.Contains(t, rec.Body.String(), "Roma")

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	f.handler.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/filter", milan).Code)
	rec = f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), "Duomo")
	assert.NotContains(t, rec.Body.String(), "Roma")
}

func TestZonesLayer(t *testing.T) {
	f := newFixture(t, &config.Config{})

	rec := f.do(http.MethodGet, "/api/zones", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var layer struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layer))
	assert.Equal(t, "FeatureCollection", layer.Type)
	assert.Len(t, layer.Features, 2)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, &config.Config{})
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/missing", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, &config.Config{})

	tests := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodGet, "/filter", http.MethodPost},
		{http.MethodGet, "/reset", http.MethodPost},
		{http.MethodGet, "/quit", http.MethodPost},
		{http.MethodPost, "/", http.MethodGet},
		{http.MethodDelete, "/api/geozones", http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
			assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
		})
	}

	select {
	case <-f.quit:
		t.Fatal("quit called by a rejected request")
	default:
	}
}

func TestFilterBadRequest(t *testing.T) {
	f := newFixture(t, &config.Config{})

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not json", "lat=45"},
		{"missing lon", `{"lat": 45, "radius": 10}`},
		{"missing radius", `{"lat": 45, "lon": 9}`},
		{"string radius", `{"lat": 45, "lon": 9, "radius": "10"}`},
		{"lat out of range", `{"lat": 91, "lon": 9, "radius": 10}`},
		{"lon out of range", `{"lat": 45, "lon": -181, "radius": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/filter", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	assert.Nil(t, f.ctx.Session.Current())
}

func TestNegativeRadiusIsEmpty(t *testing.T) {
	f := newFixture(t, &config.Config{})

	rec := f.do(http.MethodPost, "/filter", `{"lat": 45.4642, "lon": 9.19, "radius": -1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusEmpty, decodeStatus(t, rec).Status)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, &config.Config{
		RateLimit: config.RateLimit{RequestsPerSecond: 0.001, Burst: 2},
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/reset", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/filter", milan).Code)

	rec := f.do(http.MethodPost, "/filter", milan)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Read-only routes are not limited.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/zones", "").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	f := newFixture(t, &config.Config{})

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/reset", "").Code)
	}
}

func TestConcurrentFilters(t *testing.T) {
	f := newFixture(t, &config.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := milan
			if i%2 == 1 {
				body = italy
			}
			rec := f.do(http.MethodPost, "/filter", body)
			assert.Equal(t, http.StatusOK, rec.Code)
		}(i)
	}
	wg.Wait()

	current := f.ctx.Session.Current()
	require.NotNil(t, current)

	saved, err := geozone.Load(f.output)
	require.NoError(t, err)
	assert.Equal(t, len(current.Collection.Features), len(saved.Features))
	assert.Equal(t, *current.Collection.Description, *saved.Description)
}

func TestQuit(t *testing.T) {
	f := newFixture(t, &config.Config{})

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/quit", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}

	select {
	case <-f.quit:
	case <-time.After(time.Second):
		t.Fatal("quit was not called")
	}

	select {
	case <-f.quit:
		t.Fatal("quit called twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestLoggerStatus(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = fmt.Fprint(w, "short and stout")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
