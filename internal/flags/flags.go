// Package flags is the caller-facing verb set: is_enabled, enable_flag,
// disable_flag, list_flags and get_flag_details. Each verb validates the
// name, delegates to the registry and reduces the result to what scripts
// consume. Errors are logged here and returned unchanged so callers can
// still match registry.ErrUnavailable and friends.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/registry"
)

// Details is the introspection view of one flag.
type Details struct {
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DetailsOf converts a record.
func DetailsOf(f *model.Flag) *Details {
	if f == nil {
		return nil
	}
	return &Details{
		Name:        f.Name,
		Enabled:     f.Enabled,
		Description: f.Description,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Service implements the verbs on a Registry.
type Service struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New returns a Service. A nil logger uses slog.Default().
func New(reg *registry.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reg: reg, logger: logger}
}

// IsEnabled reports whether name is enabled; unknown flags are disabled.
func (s *Service) IsEnabled(ctx context.Context, name string) (bool, error) {
	if err := validate(name); err != nil {
		return false, s.fail("is_enabled", name, err)
	}
	on, err := s.reg.IsEnabled(ctx, name)
	if err != nil {
		return false, s.fail("is_enabled", name, err)
	}
	return on, nil
}

// EnableFlag enables name. It reports success only once the write has been
// read back.
func (s *Service) EnableFlag(ctx context.Context, name, description string) (bool, error) {
	if err := validate(name); err != nil {
		return false, s.fail("enable_flag", name, err)
	}
	res, err := s.reg.Enable(ctx, name, description)
	if err != nil {
		return false, s.fail("enable_flag", name, err)
	}
	s.logger.Info("enable_flag", "flag", name, "result", res.Message())
	return true, nil
}

// DisableFlag disables name. reason may be empty.
func (s *Service) DisableFlag(ctx context.Context, name, reason string) (bool, error) {
	if err := validate(name); err != nil {
		return false, s.fail("disable_flag", name, err)
	}
	res, err := s.reg.Disable(ctx, name, reason)
	if err != nil {
		return false, s.fail("disable_flag", name, err)
	}
	s.logger.Info("disable_flag", "flag", name, "result", res.Message())
	return true, nil
}

// ListFlags maps every known flag to its state.
func (s *Service) ListFlags(ctx context.Context) (map[string]bool, error) {
	m, err := s.reg.List(ctx)
	if err != nil {
		return nil, s.fail("list_flags", "", err)
	}
	return m, nil
}

// GetFlagDetails returns the record for name, or nil when there is none.
func (s *Service) GetFlagDetails(ctx context.Context, name string) (*Details, error) {
	if err := validate(name); err != nil {
		return nil, s.fail("get_flag_details", name, err)
	}
	f, ok, err := s.reg.Get(ctx, name)
	if err != nil {
		return nil, s.fail("get_flag_details", name, err)
	}
	if !ok {
		return nil, nil
	}
	return DetailsOf(f), nil
}

// ListDetails returns every record, sorted by name, from one snapshot.
func (s *Service) ListDetails(ctx context.Context) ([]*Details, error) {
	records, err := s.reg.Records(ctx)
	if err != nil {
		return nil, s.fail("list_details", "", err)
	}
	out := make([]*Details, 0, len(records))
	for _, f := range records {
		out = append(out, DetailsOf(f))
	}
	return out, nil
}

// DeleteFlag removes name. It is an administrative action outside the five
// verbs and reports false when there was nothing to delete.
func (s *Service) DeleteFlag(ctx context.Context, name string) (bool, error) {
	if err := validate(name); err != nil {
		return false, s.fail("delete_flag", name, err)
	}
	deleted, err := s.reg.Delete(ctx, name)
	if err != nil {
		return false, s.fail("delete_flag", name, err)
	}
	return deleted, nil
}

// Health reports whether the store answers.
func (s *Service) Health(ctx context.Context) error {
	return s.reg.Ping(ctx)
}

func validate(name string) error {
	if err := model.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", registry.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Service) fail(verb, name string, err error) error {
	s.logger.Error(verb+" failed", "flag", name, "err", err)
	return err
}
