package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RenderService is the health service name reporting whether a new render
// can start. The empty service name reports overall process health.
const RenderService = "wavefront.Render"

func newHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(RenderService, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// NewGRPCServer returns a gRPC server exposing the standard health service
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(gs, s.health)
	return gs
}

// acquireRender reserves a render slot, reporting false when the server is at
// capacity
func (s *Server) acquireRender() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.MaxRenders > 0 && s.active >= s.config.MaxRenders {
		return false
	}
	s.active++
	s.updateAvailability()
	return true
}

func (s *Server) releaseRender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
	s.updateAvailability()
}

// ActiveRenders returns the number of renders in progress
func (s *Server) ActiveRenders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// updateAvailability must be called with s.mu held
func (s *Server) updateAvailability() {
	status := healthpb.HealthCheckResponse_SERVING
	if s.config.MaxRenders > 0 && s.active >= s.config.MaxRenders {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(RenderService, status)
}
