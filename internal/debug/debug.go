package debug

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (catalog loaded, scales assembled)
	LevelLive    = 2 // Live info (each scale generated, cursor reads)
	LevelVerbose = 3 // Verbose (options, subsections, per-request details)
	LevelTrace   = 4 // Trace (individual ticks, very low level)
)

// Field keys attached to domain events, so hooks can route them without
// parsing the message.
const (
	FieldEvent = "event"
	FieldScale = "scale"
)

// Domain event names carried in FieldEvent.
const (
	EventAssembly = "assembly"
	EventScale    = "scale"
	EventReading  = "reading"
)

var (
	level  int
	logger = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (catalog, assembly summary)
// 2 = live info (each generated scale, cursor readings)
// 3 = verbose (options, subsection details)
// 4 = trace (every tick)
func Init(debugLevel int) {
	level = debugLevel
	logger.SetLevel(logrusLevel(level))
}

func logrusLevel(l int) logrus.Level {
	switch {
	case l >= LevelTrace:
		return logrus.TraceLevel
	case l >= LevelLive:
		return logrus.DebugLevel
	case l >= LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.PanicLevel
	}
}

// SetOutput redirects log output, e.g. to stderr or a test buffer.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// AddHook attaches a logrus hook. The web server uses it to mirror log
// lines to its status stream.
func AddHook(h logrus.Hook) {
	logger.AddHook(h)
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

func entry(tag string) *logrus.Entry {
	return logger.WithField("app", "SlideGo").WithField("tag", tag)
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo {
		entry("INFO").Infof(format, args...)
	}
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	if level >= LevelInfo {
		e := entry("INFO")
		e.Info("═══════════════════════════════════════")
		e.Infof("  %s", title)
		e.Info("═══════════════════════════════════════")
	}
}

// Assembly prints the result of building an instrument (level 1).
func Assembly(scales, ticks int, elapsed time.Duration) {
	if level >= LevelInfo {
		entry("INFO").WithFields(logrus.Fields{
			FieldEvent:   EventAssembly,
			"scales":     scales,
			"ticks":      ticks,
			"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
		}).Infof("Instrument: %d scales, %d tick marks in %s", scales, ticks, elapsed)
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive {
		entry("LIVE").Debugf(format, args...)
	}
}

// Generated prints one generated scale (level 2).
func Generated(name string, ticks int, algorithm string) {
	if level >= LevelLive {
		entry("LIVE").WithFields(logrus.Fields{
			FieldEvent:  EventScale,
			FieldScale:  name,
			"ticks":     ticks,
			"algorithm": algorithm,
		}).Debugf("Scale %s: %d ticks (%s)", name, ticks, algorithm)
	}
}

// Reading prints a cursor reading (level 2).
func Reading(name string, position float64, text string) {
	if level >= LevelLive {
		entry("LIVE").WithFields(logrus.Fields{
			FieldEvent: EventReading,
			FieldScale: name,
			"position": position,
			"text":     text,
		}).Debugf("Cursor %.6f on %s reads %s", position, name, text)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose {
		entry("VERBOSE").Debugf(format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose {
		entry("VERBOSE").Debugf("%s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose {
		e := entry("VERBOSE")
		e.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		e.Debugf("  %s", name)
		e.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose {
		entry("VERBOSE").Debugf("Step %d: %s", num, description)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo {
		entry("INFO").Infof("  %s = %v", name, value)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace).
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace {
		entry("TRACE").Tracef(format, args...)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if level >= LevelInfo {
		entry("ERROR").Error(err)
	}
}
