package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "start", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender streams a progressive render as Server-Sent Events. Every
// pass produces a passComplete event carrying the presented image.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if !s.acquireRender() {
		http.Error(w, "Too many renders in progress", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseRender()

	s.setSSEHeaders(w)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Single writer goroutine owns w; it drains the channel until it is closed
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, r.Context(), sseEventChan)
	}()

	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleChan)
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	defer func() {
		cancel()
		consoleWG.Wait()
		close(sseEventChan)
		<-writerDone
	}()

	setup, err := s.setupRender(req, webLogger)
	if err != nil {
		webLogger.Errorf("Render setup failed: %v\n", err)
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	defer setup.Session.Close()

	for _, warning := range setup.Warnings {
		webLogger.Warnf("%s\n", warning)
	}
	s.sendJSONEvent(ctx, sseEventChan, "start", StreamMessage{
		Type:     "start",
		Scene:    setup.Scene.Name,
		Width:    setup.Scene.Width,
		Height:   setup.Scene.Height,
		Warnings: setup.Warnings,
	})

	startTime := time.Now()
	passChan, errChan := setup.Progressive.RenderProgressive(ctx)
	s.handleRenderingEvents(ctx, sseEventChan, passChan, errChan, req, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents handles writing all SSE events in a single goroutine. Once
// the client is gone remaining events are drained and dropped.
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	connected := true
	for event := range sseEventChan {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards logger output as console events until ctx ends
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}
			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			default:
				// Channel full, skip message to avoid blocking
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleRenderingEvents forwards passes until the render ends, then reports
// the outcome
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, errChan <-chan error, req *RenderRequest, startTime time.Time) {

	for result := range passChan {
		update, err := newFrameUpdate(result, req.MaxPasses, time.Since(startTime).Milliseconds())
		if err != nil {
			log.Printf("Error encoding pass %d: %v", result.PassNumber, err)
			continue
		}
		update.Type = "passComplete"
		s.sendJSONEvent(ctx, sseEventChan, "passComplete", update)
	}

	// errChan is closed once the render goroutine has returned
	if err := <-errChan; err != nil {
		if ctx.Err() != nil {
			return // client disconnected
		}
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Rendering failed: %v", err))
		return
	}
	s.sendEvent(ctx, sseEventChan, "complete", "Rendering completed")
}

func (s *Server) sendJSONEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	s.sendEvent(ctx, sseEventChan, eventType, string(data))
}

func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}
