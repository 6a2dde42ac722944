package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/df07/go-wavefront-pathtracer/web/server"
)

func main() {
	// Flags override the environment
	addr := flag.String("addr", "", "HTTP listen address (overrides WAVEFRONT_HTTP_ADDR)")
	flag.Parse()

	config, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if *addr != "" {
		config.HTTPAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Wavefront Path Tracer Web Server")
	log.Printf("Visit http://localhost%s to start rendering", config.HTTPAddr)

	if err := server.NewServer(config).Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
