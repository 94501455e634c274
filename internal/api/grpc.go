package api

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ClassifyService is the health service name reported for the classify API.
const ClassifyService = "flowtagger.Classify"

// NewGRPCServer returns a gRPC server exposing the standard health service,
// with both the server and ClassifyService marked as serving.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ClassifyService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server, hs
}
