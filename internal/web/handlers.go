package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/density"
	"github.com/cjeanneret/SlideGo/internal/logic/instrument"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

// ExplorerConfig holds the label density defaults (from config) applied
// when a request does not override them.
type ExplorerConfig struct {
	Algorithm  string  `json:"algorithm"`
	Density    string  `json:"density"`
	MinSpacing float64 `json:"min_spacing"`
	Every      int     `json:"every"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Instrument  *instrument.Instrument
	Defaults    ExplorerConfig
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *StatusBroadcaster, in *instrument.Instrument, defaults ExplorerConfig, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Instrument:  in,
		Defaults:    defaults,
		staticFS:    staticFS,
	}
}

// ScaleSummary describes one generated scale without its ticks.
type ScaleSummary struct {
	Name      string  `json:"name"`
	Formula   string  `json:"formula,omitempty"`
	Function  string  `json:"function"`
	Begin     float64 `json:"begin"`
	End       float64 `json:"end"`
	Length    float64 `json:"length"`
	Layout    string  `json:"layout"`
	Direction string  `json:"direction"`
	FullTurn  bool    `json:"full_turn,omitempty"`
	Ticks     int     `json:"ticks"`
	Labels    int     `json:"labels"`
}

// ScaleDetail is a scale summary plus its (possibly thinned) ticks.
type ScaleDetail struct {
	ScaleSummary
	Density string           `json:"density"`
	Marks   []scale.TickMark `json:"marks"`
}

func summarize(gs *scale.GeneratedScale) ScaleSummary {
	def := gs.Definition()
	ticks := gs.Ticks()
	return ScaleSummary{
		Name:      def.Name,
		Formula:   def.Formula,
		Function:  def.Function.Name(),
		Begin:     def.Begin,
		End:       def.End,
		Length:    def.PhysicalLength(),
		Layout:    def.Layout.Kind.String(),
		Direction: def.Direction.String(),
		FullTurn:  scale.IsFullTurn(&def),
		Ticks:     len(ticks),
		Labels:    density.Labels(ticks),
	}
}

// DensityQuery is the parsed label density part of a request.
type DensityQuery struct {
	Policy  density.Policy
	Spacing float64
}

// ParseDensityQuery reads density, spacing and every from q, falling back
// to defaults for anything absent.
func ParseDensityQuery(q url.Values, defaults ExplorerConfig) (DensityQuery, error) {
	name := defaults.Density
	if v := q.Get("density"); v != "" {
		name = v
	}
	every := defaults.Every
	if v := q.Get("every"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return DensityQuery{}, fmt.Errorf("every must be a non-negative integer, got %q", v)
		}
		every = n
	}
	spacing := defaults.MinSpacing
	if v := q.Get("spacing"); v != "" {
		s, err := parseFinite("spacing", v)
		if err != nil {
			return DensityQuery{}, err
		}
		if s < 0 {
			return DensityQuery{}, fmt.Errorf("spacing must be >= 0, got %v", s)
		}
		spacing = s
	}
	p, err := density.ByName(name, every)
	if err != nil {
		return DensityQuery{}, err
	}
	return DensityQuery{Policy: p, Spacing: spacing}, nil
}

func parseFinite(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be finite, got %q", name, v)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error(fmt.Errorf("web: encode response: %w", err))
	}
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*scale.GeneratedScale, bool) {
	name := mux.Vars(r)["name"]
	gs, ok := h.Instrument.Scale(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown scale %q", name), http.StatusNotFound)
		return nil, false
	}
	return gs, true
}

// HandleConfig returns the explorer defaults (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Defaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleScales handles GET /scales.
func (h *Handlers) HandleScales(w http.ResponseWriter, r *http.Request) {
	scales := h.Instrument.Scales()
	out := make([]ScaleSummary, len(scales))
	for i, gs := range scales {
		out[i] = summarize(gs)
	}
	writeJSON(w, out)
}

// HandleScale handles GET /scales/{name} with optional density, spacing
// and every query parameters.
func (h *Handlers) HandleScale(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	dq, err := ParseDensityQuery(r.URL.Query(), h.Defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	marks := density.Apply(gs, dq.Policy, dq.Spacing)
	detail := ScaleDetail{
		ScaleSummary: summarize(gs),
		Density:      dq.Policy.Name(),
		Marks:        marks,
	}
	detail.Labels = density.Labels(marks)
	debug.Verbose("web: %s with %s density: %d labels", gs.Name(), dq.Policy.Name(), detail.Labels)
	writeJSON(w, detail)
}

// HandleRead handles GET /scales/{name}/read?pos=P or ?angle=A. Angles
// are only accepted on circular scales.
func (h *Handlers) HandleRead(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var pos float64
	switch {
	case q.Get("pos") != "":
		p, err := parseFinite("pos", q.Get("pos"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pos = p
	case q.Get("angle") != "":
		a, err := parseFinite("angle", q.Get("angle"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		def := gs.Definition()
		if !def.Layout.IsCircular() {
			http.Error(w, fmt.Sprintf("scale %s is not circular", def.Name), http.StatusBadRequest)
			return
		}
		v := scale.ValueAtAngle(a, &def)
		if math.IsNaN(v) {
			http.Error(w, fmt.Sprintf("angle %v is outside the arc of %s", a, def.Name), http.StatusBadRequest)
			return
		}
		pos = gs.NormalizedPosition(v)
	default:
		http.Error(w, "pos or angle is required", http.StatusBadRequest)
		return
	}
	reading, ok := h.Instrument.ReadScale(gs.Name(), pos)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown scale %q", gs.Name()), http.StatusNotFound)
		return
	}
	writeJSON(w, reading)
}

// HandleCursor handles GET /cursor?pos=P and reads every scale.
func (h *Handlers) HandleCursor(w http.ResponseWriter, r *http.Request) {
	pos, err := parseFinite("pos", r.URL.Query().Get("pos"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.Instrument.Read(pos))
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
