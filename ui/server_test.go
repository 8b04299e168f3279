package ui

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotendency/adapters/rng"
	"gotendency/domain/sample"
	"gotendency/internal/metrics"
	"gotendency/internal/sampling"
	"gotendency/internal/session"
	"gotendency/internal/tendency"
	"gotendency/internal/visual"
)

type testEnv struct {
	server   *Server
	registry *prometheus.Registry
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T, variant sample.Variant) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	reporter := tendency.NewReporter()

	manager := session.NewManager(session.ManagerConfig{
		TTL:         time.Minute,
		MaxSessions: 10,
		Seed:        1234,
		Defaults:    sample.DefaultParams(),
	}, rng.NewAdapter(), session.Deps{
		Generator: sampling.NewGenerator(),
		Injector:  sampling.NewInjector(true),
		Metrics:   collector,
	})
	visualizer := visual.NewVisualizer(visual.Options{
		Width:         400,
		PanelHeight:   150,
		MaxConcurrent: 2,
		Labels:        variant.Labels(),
	}, reporter, collector, nil)

	srv, err := NewServer(Options{GinMode: "test", CookieName: "ct_session", CookieMaxAge: time.Minute, Variant: variant}, manager, reporter, visualizer, nil)
	require.NoError(t, err)
	return &testEnv{server: srv, registry: reg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ct_session" {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestIndex_StartsSession(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)
	assert.True(t, env.cookie.HttpOnly)
	body := rec.Body.String()
	assert.Contains(t, body, "Measuring Sensitivity of Central Tendency Measures to Outliers")
	assert.Contains(t, body, `id="measure_tendencies"`)
	assert.Contains(t, body, "Mean value: ")
	assert.Contains(t, body, "width: 60%")
	assert.Contains(t, body, "<h3")
}

func TestIndex_CompactVariant(t *testing.T) {
	env := newTestEnv(t, sample.VariantCompact)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Measuring Sensibility of Central Tendency Measures to Outliers")
	assert.Contains(t, rec.Body.String(), "height: 800px")
}

func TestState_Defaults(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)

	st := decodeState(t, env.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))

	assert.Equal(t, sample.DefaultParams(), st.Params)
	assert.Equal(t, 1000, st.BaseLen)
	assert.Equal(t, 1000, st.WorkingLen)
	assert.Equal(t, 40, st.BinsUsed)
	assert.Greater(t, st.Shape.StdDev, 0.0)
	assert.Greater(t, st.Shape.Skewness, 0.0)
	assert.Equal(t, tendency.Format(sample.Tendencies{Mean: st.Mean, Median: st.Median}), st.MeasureTendencies)
}

func TestParams_OutliersAndSize(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	st := decodeState(t, env.postJSON(t, "/api/params", map[string]interface{}{
		"n": 500, "outliers": true, "n_outliers": 5, "offset_outliers": 20,
	}))

	assert.Equal(t, 500, st.BaseLen)
	assert.Equal(t, 505, st.WorkingLen)
	assert.True(t, st.Params.OutliersEnabled)

	// hiding the sliders keeps their values in effect
	st = decodeState(t, env.postJSON(t, "/api/params", map[string]interface{}{"outliers": false}))
	assert.Equal(t, 505, st.WorkingLen)
	assert.Equal(t, 5, st.Params.OutlierCount)
}

func TestParams_FormBinsOnly(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	before := decodeState(t, env.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(url.Values{"n_bins": {"0"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	st := decodeState(t, env.do(t, req))

	assert.Equal(t, 0, st.Params.Bins)
	assert.Equal(t, 1, st.BinsUsed)
	assert.Equal(t, before.Version, st.Version)
	assert.Equal(t, before.MeasureTendencies, st.MeasureTendencies)
}

func TestParams_RejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)

	for _, body := range []map[string]interface{}{
		{"n": 20000},
		{"n_bins": -1},
		{"n_outliers": 11},
		{"offset_outliers": 55},
	} {
		rec := env.postJSON(t, "/api/params", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	}
}

func TestParams_ConcurrentPartialUpdates(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, env.cookie)
	handler := env.server.Handler()

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(env.cookie)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, post(`{"n_outliers":0,"offset_outliers":0}`))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, post(`{"n_outliers":5}`))
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, post(`{"offset_outliers":20}`))
		}()
		wg.Wait()

		st := decodeState(t, env.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))
		require.Equal(t, 5, st.Params.OutlierCount, "round %d", i)
		require.Equal(t, 20, st.Params.OutlierOffset, "round %d", i)
		require.Equal(t, st.BaseLen+5, st.WorkingLen)
	}
}

func TestTendencies_Text(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/tendencies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^Mean value: -?[0-9.]+\tMedian value: -?[0-9.]+$`, rec.Body.String())
}

func TestPlot_PNG(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	env.postJSON(t, "/api/params", map[string]interface{}{"n": 200})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/plot.png", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestPlot_ZeroSizeZeroBins(t *testing.T) {
	env := newTestEnv(t, sample.VariantCompact)
	st := decodeState(t, env.postJSON(t, "/api/params", map[string]interface{}{"n": 0, "n_bins": 0}))
	assert.Equal(t, 1, st.WorkingLen)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/plot.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReset_RedrawsSample(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	before := decodeState(t, env.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))

	after := decodeState(t, env.do(t, httptest.NewRequest(http.MethodPost, "/api/session/reset", nil)))

	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, before.Params, after.Params)
	assert.NotEqual(t, before.Mean, after.Mean)
}

func TestSessions_AreIsolated(t *testing.T) {
	a := newTestEnv(t, sample.VariantAnnotated)
	a.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	a.postJSON(t, "/api/params", map[string]interface{}{"n_outliers": 3, "offset_outliers": 10})

	// a second browser on the same server
	b := &testEnv{server: a.server}
	st := decodeState(t, b.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))

	assert.Equal(t, 1000, st.WorkingLen)
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.cookie)
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/params")
}

func TestOpsRouter(t *testing.T) {
	env := newTestEnv(t, sample.VariantAnnotated)
	env.do(t, httptest.NewRequest(http.MethodGet, "/api/plot.png", nil))
	ops := NewOpsRouter(env.registry)

	for path, want := range map[string]string{
		"/healthz":      "ok",
		"/metrics":      "tendency_renders_total",
		"/debug/pprof/": "goroutine",
	} {
		rec := httptest.NewRecorder()
		ops.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}
}
