package web

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/catalog"
	"github.com/cjeanneret/SlideGo/internal/logic/density"
	"github.com/cjeanneret/SlideGo/internal/logic/instrument"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

var (
	testInstrumentOnce sync.Once
	testInstrument     *instrument.Instrument
)

func sharedInstrument(t *testing.T) *instrument.Instrument {
	t.Helper()
	testInstrumentOnce.Do(func() {
		defs, err := catalog.Standard().Select("C", "CI", "S", "CC", "CQ")
		if err != nil {
			panic(err)
		}
		testInstrument, err = instrument.Assemble(defs, scale.Options{}, 0)
		if err != nil {
			panic(err)
		}
	})
	return testInstrument
}

func testDefaults() ExplorerConfig {
	return ExplorerConfig{Algorithm: "modulo", Density: "none", MinSpacing: 4}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	staticFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>test</html>")},
		"app.js":     &fstest.MapFile{Data: []byte("// app")},
	}
	h := NewHandlers(NewStatusBroadcaster(), sharedInstrument(t), testDefaults(), staticFS)
	return &Server{addr: "127.0.0.1:0", handlers: h}
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.Mux().ServeHTTP(w, req)
	return w
}

// ---------- ParseDensityQuery ----------

func TestParseDensityQuery_Defaults(t *testing.T) {
	dq, err := ParseDensityQuery(url.Values{}, ExplorerConfig{Density: "greedy", MinSpacing: 3})
	require.NoError(t, err)
	assert.Equal(t, "greedy", dq.Policy.Name())
	assert.Equal(t, 3.0, dq.Spacing)
}

func TestParseDensityQuery_Overrides(t *testing.T) {
	q := url.Values{"density": {"every_nth"}, "every": {"3"}, "spacing": {"2.5"}}
	dq, err := ParseDensityQuery(q, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, density.EveryNth{N: 3}, dq.Policy)
	assert.Equal(t, 2.5, dq.Spacing)
}

func TestParseDensityQuery_Invalid(t *testing.T) {
	cases := []struct {
		name string
		q    url.Values
	}{
		{"unknown_policy", url.Values{"density": {"sparse"}}},
		{"every_not_int", url.Values{"every": {"two"}}},
		{"every_negative", url.Values{"every": {"-1"}}},
		{"spacing_nan", url.Values{"spacing": {"NaN"}}},
		{"spacing_inf", url.Values{"spacing": {"+Inf"}}},
		{"spacing_negative", url.Values{"spacing": {"-2"}}},
		{"spacing_text", url.Values{"spacing": {"wide"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDensityQuery(tc.q, testDefaults())
			assert.Error(t, err)
		})
	}
}

// ---------- routes ----------

func TestHandleScales(t *testing.T) {
	w := get(t, newTestServer(t), "/scales")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var out []ScaleSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 5)

	names := make([]string, len(out))
	for i, s := range out {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"C", "CI", "S", "CC", "CQ"}, names)

	assert.Equal(t, 321, out[0].Ticks)
	assert.Equal(t, "log", out[0].Function)
	assert.Equal(t, "linear", out[0].Layout)
	assert.False(t, out[0].FullTurn)
	assert.True(t, out[3].FullTurn)
	assert.Equal(t, "circular", out[3].Layout)
	assert.False(t, out[4].FullTurn)
}

func TestHandleScale_Density(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/scales/C")
	require.Equal(t, http.StatusOK, w.Code)
	var all ScaleDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, "none", all.Density)
	assert.Len(t, all.Marks, 321)

	w = get(t, s, "/scales/C?density=coarsest")
	require.Equal(t, http.StatusOK, w.Code)
	var thin ScaleDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thin))
	assert.Equal(t, "coarsest", thin.Density)
	assert.Len(t, thin.Marks, 321)
	assert.Less(t, thin.Labels, all.Labels)
	assert.Equal(t, all.Ticks, thin.Ticks)
}

func TestHandleScale_Errors(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/scales/Z").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/scales/C?density=sparse").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/scales/C?spacing=-1").Code)
}

func TestHandleRead_Position(t *testing.T) {
	w := get(t, newTestServer(t), "/scales/C/read?pos=0.5")
	require.Equal(t, http.StatusOK, w.Code)

	var r struct {
		Scale string   `json:"scale"`
		Value *float64 `json:"value"`
		Text  string   `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, "C", r.Scale)
	require.NotNil(t, r.Value)
	assert.InDelta(t, math.Sqrt(10), *r.Value, 1e-9)
	assert.Equal(t, "3.162", r.Text)
}

func TestHandleRead_Angle(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/scales/CC/read?angle=180")
	require.Equal(t, http.StatusOK, w.Code)
	var r struct {
		Value *float64 `json:"value"`
		Angle *float64 `json:"angle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	require.NotNil(t, r.Value)
	require.NotNil(t, r.Angle)
	assert.InDelta(t, math.Sqrt(10), *r.Value, 1e-9)
	assert.InDelta(t, 180, *r.Angle, 1e-9)

	// CQ covers half a turn.
	w = get(t, s, "/scales/CQ/read?angle=90")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.InDelta(t, math.Pow(10, 0.25), *r.Value, 1e-9)
}

func TestHandleRead_Errors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		target string
		code   int
	}{
		{"unknown_scale", "/scales/Z/read?pos=0.5", http.StatusNotFound},
		{"missing_param", "/scales/C/read", http.StatusBadRequest},
		{"bad_pos", "/scales/C/read?pos=abc", http.StatusBadRequest},
		{"nan_pos", "/scales/C/read?pos=NaN", http.StatusBadRequest},
		{"angle_on_linear", "/scales/C/read?angle=90", http.StatusBadRequest},
		{"angle_past_arc", "/scales/CQ/read?angle=270", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, get(t, s, tc.target).Code)
		})
	}
}

func TestHandleCursor(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/cursor?pos=0.5")
	require.Equal(t, http.StatusOK, w.Code)
	var readings []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readings))
	require.Len(t, readings, 5)
	assert.Equal(t, "C", readings[0]["scale"])
	assert.Equal(t, "3.162", readings[0]["text"])
	assert.NotContains(t, readings[0], "angle")
	assert.Contains(t, readings[3], "angle")

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/cursor").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/cursor?pos=Inf").Code)
}

func TestHandleCursor_NonFiniteValueIsNull(t *testing.T) {
	w := get(t, newTestServer(t), "/cursor?pos=1.5")
	require.Equal(t, http.StatusOK, w.Code)
	var readings []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readings))
	assert.Equal(t, "S", readings[2]["scale"])
	assert.Nil(t, readings[2]["value"])
}

func TestHandleConfig(t *testing.T) {
	w := get(t, newTestServer(t), "/config")
	require.Equal(t, http.StatusOK, w.Code)

	var cfg ExplorerConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, testDefaults(), cfg)
}

func TestServeIndex(t *testing.T) {
	w := get(t, newTestServer(t), "/")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
	if !strings.Contains(w.Body.String(), "<html>") {
		t.Error("body should contain HTML content")
	}
}

func TestServeIndex_MissingFile(t *testing.T) {
	h := NewHandlers(NewStatusBroadcaster(), sharedInstrument(t), testDefaults(), fstest.MapFS{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.ServeIndex(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestStaticFiles(t *testing.T) {
	w := get(t, newTestServer(t), "/static/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "// app")
}

func TestMux_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/scales", nil)
	w := httptest.NewRecorder()
	newTestServer(t).Mux().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMux_LogsRequests(t *testing.T) {
	var buf bytes.Buffer
	debug.SetOutput(&buf)
	debug.Init(debug.LevelLive)
	t.Cleanup(func() {
		debug.Init(debug.LevelOff)
		debug.SetOutput(os.Stdout)
	})

	w := get(t, newTestServer(t), "/scales/C/read?pos=0.5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "GET /scales/C/read?pos=0.5")
	assert.Contains(t, buf.String(), "event=reading")
}

func TestEmbeddedStatic(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", sharedInstrument(t), NewStatusBroadcaster(), testDefaults())
	require.NoError(t, err)
	w := get(t, s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SlideGo")
}

// ---------- HandleStatusStream ----------

func TestHandleStatusStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Mux())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/status/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 256)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), ": connected")

	// The subscription is registered before ": connected" is flushed.
	s.handlers.Broadcaster.Publish(StatusEvent{Kind: KindLog, Msg: "generated C"})
	var got strings.Builder
	for !strings.Contains(got.String(), "generated C") {
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		got.Write(buf[:n])
	}
	assert.Contains(t, got.String(), `data: {"t":`)
	assert.Contains(t, got.String(), `"kind":"log"`)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", sharedInstrument(t), NewStatusBroadcaster(), testDefaults())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
