package server

import (
	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/flags"
)

// detailsToWire converts façade details to the wire form. nil stays nil.
func detailsToWire(d *flags.Details) *flagsv1.Flag {
	if d == nil {
		return nil
	}
	return &flagsv1.Flag{
		Name:        d.Name,
		Enabled:     d.Enabled,
		Description: d.Description,
		UpdatedAt:   d.UpdatedAt,
	}
}
