package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

const writeWait = 10 * time.Second

// handleFrames upgrades to a WebSocket and streams every presented pass.
// Frames are JSON with an embedded PNG, or binary snappy frames when
// ?encoding=snappy. Any message from the client is ignored; closing the
// connection cancels the render.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	encoding := r.URL.Query().Get("encoding")
	if encoding == "" {
		encoding = EncodingJSON
	}
	if encoding != EncodingJSON && encoding != EncodingSnappy {
		http.Error(w, fmt.Sprintf("Invalid request: unknown encoding %q", encoding), http.StatusBadRequest)
		return
	}
	if !s.acquireRender() {
		http.Error(w, "Too many renders in progress", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseRender()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: detects the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger := NewWebLogger(fmt.Sprintf("ws-%d", time.Now().UnixNano()), nil)
	setup, err := s.setupRender(req, logger)
	if err != nil {
		logger.Errorf("Render setup failed: %v", err)
		s.writeWSJSON(conn, StreamMessage{Type: "error", Message: err.Error()})
		s.closeWS(conn, websocket.CloseInternalServerErr, "render setup failed")
		return
	}
	defer setup.Session.Close()

	if err := s.writeWSJSON(conn, StreamMessage{
		Type:     "start",
		Scene:    setup.Scene.Name,
		Width:    setup.Scene.Width,
		Height:   setup.Scene.Height,
		Warnings: setup.Warnings,
	}); err != nil {
		return
	}

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	startTime := time.Now()
	passChan, errChan := setup.Progressive.RenderProgressive(ctx)
	for passChan != nil {
		select {
		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			if err := s.writeFrame(conn, encoding, result, req.MaxPasses, startTime); err != nil {
				log.Printf("websocket write failed: %v", err)
				cancel() // keep draining until the render stops
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cancel()
			}
		}
	}

	if err := <-errChan; err != nil {
		if ctx.Err() == nil {
			s.writeWSJSON(conn, StreamMessage{Type: "error", Message: fmt.Sprintf("Rendering failed: %v", err)})
			s.closeWS(conn, websocket.CloseInternalServerErr, "render failed")
		}
		return
	}
	if ctx.Err() == nil {
		s.writeWSJSON(conn, StreamMessage{Type: "complete", Message: "Rendering completed"})
		s.closeWS(conn, websocket.CloseNormalClosure, "done")
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, encoding string, result renderer.PassResult, totalPasses int, startTime time.Time) error {
	if encoding == EncodingSnappy {
		bounds := result.Image.Bounds()
		frame := EncodeSnappyFrame(FrameHeader{
			PassNumber: result.PassNumber,
			Samples:    result.Stats.TotalSamples,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		}, result.Image)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.BinaryMessage, frame)
	}

	update, err := newFrameUpdate(result, totalPasses, time.Since(startTime).Milliseconds())
	if err != nil {
		return err
	}
	return s.writeWSJSON(conn, update)
}

func (s *Server) writeWSJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (s *Server) closeWS(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
