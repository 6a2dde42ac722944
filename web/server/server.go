package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc/health"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// Request limits
const (
	minImageSize = 16
	maxImageSize = 2000
	maxSamples   = 10000
	maxPasses    = 1000
	maxBounces   = 64
)

// Server handles web requests for the wavefront path tracer
type Server struct {
	config   *Config
	health   *health.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active int
}

// NewServer creates a new web server
func NewServer(config *Config) *Server {
	s := &Server{
		config: config,
		health: newHealthServer(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene id (e.g., "cornell-box" or "gltf:scenes/duck.glb")
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	MaxSamples int    `json:"maxSamples"` // Maximum samples per pixel
	MaxPasses  int    `json:"maxPasses"`  // Maximum number of passes
	MaxBounces int    `json:"maxBounces"` // Overrides the scene's bounce budget when > 0
	Procedural bool   `json:"procedural"` // Palette colours instead of image textures
}

// renderSetup holds everything a single render owns
type renderSetup struct {
	Scene       *scene.Scene
	Session     *renderer.Session
	Progressive *renderer.Progressive
	Warnings    []string
}

// Handler returns the HTTP handler serving the API, the WebSocket frame
// stream and the static client
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/ws", s.handleFrames)
	return mux
}

// Start serves HTTP (and gRPC health when configured) until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	if s.config.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.config.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", s.config.GRPCAddr, err)
		}
		grpcServer := s.NewGRPCServer()
		defer grpcServer.GracefulStop()
		go func() {
			log.Printf("gRPC health service listening on %s", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	go func() {
		log.Printf("Starting web server on http://localhost%s", s.config.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		httpServer.Close()
		return err
	case <-ctx.Done():
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// handleHealth reports liveness and render capacity
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"activeRenders": s.ActiveRenders(),
		"maxRenders":    s.config.MaxRenders,
	})
}

// handleScenes lists built-in and glTF scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	scenes, err := scene.ListAllScenes(s.config.GLTFDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// parseRenderRequest parses and validates request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: "cornell-box"}
	if id := query.Get("scene"); id != "" {
		req.Scene = id
	}
	if err := s.checkSceneID(req.Scene); err != nil {
		return nil, err
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", req.Width, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 64, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", 8, 1, maxPasses); err != nil {
		return nil, err
	}
	if req.MaxBounces, err = parseIntParam(query, "maxBounces", 0, 0, maxBounces); err != nil {
		return nil, err
	}
	if req.Procedural, err = parseBoolParam(query, "procedural", false); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// checkSceneID keeps mesh file ids inside the configured scenes directory
func (s *Server) checkSceneID(id string) error {
	var path string
	switch {
	case strings.HasPrefix(id, "gltf:"):
		path = strings.TrimPrefix(id, "gltf:")
	case strings.HasPrefix(id, "ply:"):
		path = strings.TrimPrefix(id, "ply:")
	default:
		return nil
	}
	dir, err := filepath.Abs(s.config.GLTFDir)
	if err != nil {
		return fmt.Errorf("invalid scenes directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid scene path %q", path)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("scene %q is outside the scenes directory", path)
	}
	return nil
}

// setupRender loads the scene and initialises a session for it
func (s *Server) setupRender(req *RenderRequest, logger core.Logger) (*renderSetup, error) {
	sc, warnings, err := scene.Load(req.Scene, scene.LoadOptions{
		Camera:     scene.CameraConfig{Width: req.Width, Height: req.Height},
		MaxBounces: req.MaxBounces,
		Texture:    s.config.TexturePath,
	})
	if err != nil {
		return nil, err
	}

	opts := s.config.RenderOptions()
	opts.ProceduralTextures = req.Procedural
	session, err := renderer.NewSession(sc, opts, logger)
	if err != nil {
		return nil, err
	}

	progressive := renderer.NewProgressive(session, renderer.ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: req.MaxSamples,
		MaxPasses:          req.MaxPasses,
	}, logger)

	return &renderSetup{
		Scene:       sc,
		Session:     session,
		Progressive: progressive,
		Warnings:    warnings,
	}, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
