// Package server exposes the flag verbs over gRPC and HTTP/JSON.
package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/health"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/flags"
)

// FlagServer implements flagsv1.FlagServiceServer and the HTTP handlers on
// top of a flags.Service.
type FlagServer struct {
	svc    *flags.Service
	logger *slog.Logger
	health *health.Server
}

var _ flagsv1.FlagServiceServer = (*FlagServer)(nil)

// NewFlagServer returns a FlagServer. A nil logger uses slog.Default().
func NewFlagServer(svc *flags.Service, logger *slog.Logger) *FlagServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlagServer{
		svc:    svc,
		logger: logger,
		health: health.NewServer(),
	}
}

// Shutdown marks every gRPC health status NOT_SERVING so load balancers stop
// routing before the listeners close.
func (s *FlagServer) Shutdown() {
	s.health.Shutdown()
}

// IsEnabled reports whether a flag is enabled.
func (s *FlagServer) IsEnabled(ctx context.Context, req *flagsv1.IsEnabledRequest) (*flagsv1.IsEnabledResponse, error) {
	on, err := s.svc.IsEnabled(ctx, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &flagsv1.IsEnabledResponse{Name: req.Name, Enabled: on}, nil
}

// EnableFlag enables a flag.
func (s *FlagServer) EnableFlag(ctx context.Context, req *flagsv1.EnableFlagRequest) (*flagsv1.EnableFlagResponse, error) {
	ok, err := s.svc.EnableFlag(ctx, req.Name, req.Description)
	if err != nil {
		return nil, toStatus(err)
	}
	return &flagsv1.EnableFlagResponse{Success: ok}, nil
}

// DisableFlag disables a flag.
func (s *FlagServer) DisableFlag(ctx context.Context, req *flagsv1.DisableFlagRequest) (*flagsv1.DisableFlagResponse, error) {
	ok, err := s.svc.DisableFlag(ctx, req.Name, req.Reason)
	if err != nil {
		return nil, toStatus(err)
	}
	return &flagsv1.DisableFlagResponse{Success: ok}, nil
}

// ListFlags returns every flag's state, and the records when asked.
func (s *FlagServer) ListFlags(ctx context.Context, req *flagsv1.ListFlagsRequest) (*flagsv1.ListFlagsResponse, error) {
	resp, err := s.listFlags(ctx, req.Details)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *FlagServer) listFlags(ctx context.Context, details bool) (*flagsv1.ListFlagsResponse, error) {
	if !details {
		m, err := s.svc.ListFlags(ctx)
		if err != nil {
			return nil, err
		}
		return &flagsv1.ListFlagsResponse{Flags: m}, nil
	}
	records, err := s.svc.ListDetails(ctx)
	if err != nil {
		return nil, err
	}
	resp := &flagsv1.ListFlagsResponse{
		Flags:   make(map[string]bool, len(records)),
		Records: make([]*flagsv1.Flag, 0, len(records)),
	}
	for _, d := range records {
		resp.Flags[d.Name] = d.Enabled
		resp.Records = append(resp.Records, detailsToWire(d))
	}
	return resp, nil
}

// GetFlagDetails returns one record; Flag is nil when it does not exist.
func (s *FlagServer) GetFlagDetails(ctx context.Context, req *flagsv1.GetFlagDetailsRequest) (*flagsv1.GetFlagDetailsResponse, error) {
	d, err := s.svc.GetFlagDetails(ctx, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &flagsv1.GetFlagDetailsResponse{Flag: detailsToWire(d)}, nil
}

// DeleteFlag removes a flag.
func (s *FlagServer) DeleteFlag(ctx context.Context, req *flagsv1.DeleteFlagRequest) (*flagsv1.DeleteFlagResponse, error) {
	deleted, err := s.svc.DeleteFlag(ctx, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &flagsv1.DeleteFlagResponse{Deleted: deleted}, nil
}

// Health reports whether the store answers. An unreachable store is a
// successful RPC with status "unavailable".
func (s *FlagServer) Health(ctx context.Context, _ *flagsv1.HealthRequest) (*flagsv1.HealthResponse, error) {
	return s.healthStatus(ctx), nil
}

func (s *FlagServer) healthStatus(ctx context.Context) *flagsv1.HealthResponse {
	if err := s.svc.Health(ctx); err != nil {
		return &flagsv1.HealthResponse{Status: flagsv1.StatusUnavailable, Error: err.Error()}
	}
	return &flagsv1.HealthResponse{Status: flagsv1.StatusOK}
}
