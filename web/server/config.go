package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

const (
	// DefaultHTTPAddr is the address the HTTP and WebSocket endpoints listen on.
	DefaultHTTPAddr = ":8080"
	// DefaultGRPCAddr is the address of the gRPC health service. "off" disables it.
	DefaultGRPCAddr = ":8081"
	// DefaultStaticDir holds the browser client.
	DefaultStaticDir = "static"
	// DefaultGLTFDir is searched for .gltf/.glb scenes.
	DefaultGLTFDir = "scenes"
	// DefaultMaxRenders bounds concurrent render sessions. Zero disables the limit.
	DefaultMaxRenders = 4
	// DefaultPingInterval controls the keepalive cadence for WebSocket connections.
	DefaultPingInterval = 30 * time.Second
)

// Config captures the runtime tunables of the web server.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	StaticDir      string
	GLTFDir        string
	TexturePath    string
	AllowedOrigins []string
	MaxRenders     int
	PingInterval   time.Duration

	NumWorkers     int
	BlockSize      int
	SortByMaterial bool
}

// LoadConfig reads the server configuration from WAVEFRONT_* environment
// variables. Every invalid override is reported in the returned error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getString("WAVEFRONT_HTTP_ADDR", DefaultHTTPAddr),
		GRPCAddr:       getString("WAVEFRONT_GRPC_ADDR", DefaultGRPCAddr),
		StaticDir:      getString("WAVEFRONT_STATIC_DIR", DefaultStaticDir),
		GLTFDir:        getString("WAVEFRONT_GLTF_DIR", DefaultGLTFDir),
		TexturePath:    strings.TrimSpace(os.Getenv("WAVEFRONT_TEXTURE")),
		AllowedOrigins: parseList(os.Getenv("WAVEFRONT_ALLOWED_ORIGINS")),
		MaxRenders:     DefaultMaxRenders,
		PingInterval:   DefaultPingInterval,
		BlockSize:      renderer.DefaultOptions().BlockSize,
	}
	if strings.EqualFold(cfg.GRPCAddr, "off") {
		cfg.GRPCAddr = ""
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("WAVEFRONT_MAX_RENDERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("WAVEFRONT_MAX_RENDERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxRenders = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("WAVEFRONT_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("WAVEFRONT_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("WAVEFRONT_WORKERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("WAVEFRONT_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.NumWorkers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("WAVEFRONT_BLOCK_SIZE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("WAVEFRONT_BLOCK_SIZE must be a positive integer, got %q", raw))
		} else {
			cfg.BlockSize = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("WAVEFRONT_SORT")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("WAVEFRONT_SORT must be a boolean value, got %q", raw))
		} else {
			cfg.SortByMaterial = value
		}
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// RenderOptions returns the session options every render started by the server uses
func (c *Config) RenderOptions() renderer.Options {
	opts := renderer.DefaultOptions()
	opts.NumWorkers = c.NumWorkers
	opts.BlockSize = c.BlockSize
	opts.SortByMaterial = c.SortByMaterial
	return opts
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
