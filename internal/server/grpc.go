package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
)

// NewGRPCServer creates a gRPC server with recovery, logging and auth
// interceptors, and registers FlagService plus the standard health service.
func (s *FlagServer) NewGRPCServer(authToken string, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(s.logger),
			LoggingInterceptor(s.logger),
			AuthInterceptor(authToken),
		),
	}, opts...)
	srv := grpc.NewServer(opts...)

	flagsv1.RegisterFlagServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(flagsv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}
