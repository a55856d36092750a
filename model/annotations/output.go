package annotations

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	UseColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter writing to w, stdout if nil.
// Color follows the fatih/color terminal detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &OutputFormatter{
		UseColor: !color.NoColor,
		writer:   w,
	}
}

// Handle prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	if output := f.Format(event); output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case StorePut:
		return fmt.Sprintf("%s %s put %v with %s",
			latency, f.colorize("+", color.FgGreen), event.Data["doc"], f.count(event.Data["index.count"], "index keys"))
	case StoreGet:
		if found, _ := event.Data["found"].(bool); !found {
			return fmt.Sprintf("%s get %v: not found", latency, event.Data["doc"])
		}
		return fmt.Sprintf("%s get %v", latency, event.Data["doc"])
	case StoreDelete:
		return fmt.Sprintf("%s %s delete %v", latency, f.colorize("-", color.FgRed), event.Data["doc"])
	case StoreScan:
		return fmt.Sprintf("%s scan %v returned %s",
			latency, event.Data["field"], f.count(event.Data["doc.count"], "documents"))
	case StoreCount:
		return fmt.Sprintf("%s count %v = %v", latency, event.Data["field"], event.Data["count"])
	case ErrorBackend:
		return fmt.Sprintf("%s %s %v", latency, f.colorize("✗", color.FgRed), event.Data["error"])
	}
	return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
}

func (f *OutputFormatter) formatLatency(d time.Duration) string {
	var s string
	if d < time.Millisecond {
		// Use microseconds for sub-millisecond durations
		s = fmt.Sprintf("[%dµs]", d.Microseconds())
	} else {
		s = fmt.Sprintf("[%.2fms]", float64(d.Microseconds())/1000.0)
	}
	switch {
	case d < 10*time.Millisecond:
		return f.colorize(s, color.FgGreen)
	case d < 100*time.Millisecond:
		return f.colorize(s, color.FgYellow)
	default:
		return f.colorize(s, color.FgRed)
	}
}

func (f *OutputFormatter) count(n any, label string) string {
	return f.colorize(fmt.Sprintf("%v %s", n, label), color.FgCyan)
}

func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.UseColor {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to w.
func ConsoleHandler(w io.Writer) Handler {
	return NewOutputFormatter(w).Handle
}
