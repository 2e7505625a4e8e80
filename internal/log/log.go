package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger installs Handler on stderr with the level taken from the
// HARVEST_LOG environment variable (default "error").
func InitLogger() {
	level := strings.ToLower(os.Getenv("HARVEST_LOG"))
	if level == "" {
		level = "error"
	}
	log.SetHandler(NewHandler(os.Stderr))
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.ErrorLevel)
		log.Errorf("unknown HARVEST_LOG level %q, using error", level)
		return
	}
	log.SetLevel(lvl)
}

// Handler writes one line per entry: timestamp, level initial, message and
// sorted fields.
type Handler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w}
}

// HandleLog implements the log.Handler interface.
func (h *Handler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(h.w, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(h.w, " %s=%v", name, e.Fields.Get(name))
	}
	fmt.Fprintln(h.w)
	return nil
}
