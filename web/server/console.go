package server

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
}

var _ core.Logger = (*WebLogger)(nil)

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.send("info", fmt.Sprintf(format, args...))
}

// Warnf logs a message at warning level
func (wl *WebLogger) Warnf(format string, args ...interface{}) {
	wl.send("warning", fmt.Sprintf(format, args...))
}

// Errorf logs a message at error level
func (wl *WebLogger) Errorf(format string, args ...interface{}) {
	wl.send("error", fmt.Sprintf(format, args...))
}

func (wl *WebLogger) send(level, message string) {
	// Server log gets every message, tagged with the render
	log.Printf("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))

	if wl.consoleChan == nil {
		return
	}
	// Non-blocking: a slow client loses console lines, not frames
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
	}
}
