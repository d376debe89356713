package web

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/SlideGo/internal/debug"
)

// Event kinds on the status stream. Domain kinds come from the debug
// package: debug.EventAssembly, debug.EventScale and debug.EventReading.
const (
	KindLog  = "log"
	KindHTTP = "http"
)

// StatusEvent is one message on the explorer status stream.
//
//	{"t":"...","kind":"reading","l":"debug","msg":"...","scale":"C","data":{"position":0.5,"text":"3.162"}}
type StatusEvent struct {
	Time  string                 `json:"t"`
	Kind  string                 `json:"kind"`
	Level string                 `json:"l,omitempty"`
	Msg   string                 `json:"msg"`
	Scale string                 `json:"scale,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// StatusBroadcaster fans status events out to SSE clients. Each client
// has a bounded queue; a slow client misses events rather than stalling
// generation or request handling.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

const clientQueue = 64

// NewStatusBroadcaster creates a broadcaster with no clients.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{clients: make(map[chan string]struct{})}
}

// Subscribe registers a client. The returned function unregisters it and
// closes the channel; calling it more than once is harmless.
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, clientQueue)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Clients returns the number of subscribed clients.
func (b *StatusBroadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish encodes evt as JSON and queues it for every client. A zero
// Time is stamped with the current time.
func (b *StatusBroadcaster) Publish(evt StatusEvent) {
	if evt.Time == "" {
		evt.Time = time.Now().Format(time.RFC3339)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// BroadcastWriter adapts the broadcaster to io.Writer for http.Server's
// ErrorLog. Each non-blank write becomes one KindHTTP event.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.b.Publish(StatusEvent{Kind: KindHTTP, Level: "error", Msg: msg})
	}
	return len(p), nil
}

// LogHook turns debug log entries into status events. Entries tagged
// with debug.FieldEvent keep that kind and their scale; other fields
// except app and tag go to Data. Untagged entries are KindLog.
type LogHook struct {
	b *StatusBroadcaster
}

// NewLogHook returns a hook for debug.AddHook.
func NewLogHook(b *StatusBroadcaster) *LogHook {
	return &LogHook{b: b}
}

// Levels implements logrus.Hook.
func (h *LogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *LogHook) Fire(e *logrus.Entry) error {
	evt := StatusEvent{
		Time:  e.Time.Format(time.RFC3339),
		Kind:  KindLog,
		Level: e.Level.String(),
		Msg:   e.Message,
	}
	for k, v := range e.Data {
		switch k {
		case "app", "tag":
		case debug.FieldEvent:
			evt.Kind = fmt.Sprint(v)
		case debug.FieldScale:
			evt.Scale = fmt.Sprint(v)
		default:
			if evt.Data == nil {
				evt.Data = make(map[string]interface{}, len(e.Data))
			}
			evt.Data[k] = v
		}
	}
	h.b.Publish(evt)
	return nil
}
