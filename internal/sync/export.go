package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/flags/internal/model"
)

// Source is what a snapshot is taken from. store.Store satisfies it.
type Source interface {
	List(ctx context.Context) ([]*model.Flag, error)
}

// SourceFunc adapts a snapshot function, such as a registry's Records, to
// Source.
type SourceFunc func(ctx context.Context) ([]*model.Flag, error)

// List calls f.
func (f SourceFunc) List(ctx context.Context) ([]*model.Flag, error) { return f(ctx) }

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FlagCount int       `json:"flag_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data *model.Flag `json:"data"`
}

// ExportJSONL writes every flag record in src as JSONL to w: a header line,
// then one line per flag sorted by name.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	flags, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list flags: %w", err)
	}
	sort.Slice(flags, func(i, j int) bool {
		return flags[i].Name < flags[j].Name
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		FlagCount: len(flags),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, f := range flags {
		if err := enc.Encode(record{Type: "flag", Data: f}); err != nil {
			return fmt.Errorf("encode flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// readHeader decodes the header line at the start of an exported snapshot.
func readHeader(data []byte) (header, error) {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return header{}, fmt.Errorf("decode snapshot header: %w", err)
	}
	if h.Type != "header" {
		return header{}, errors.New("snapshot does not start with a header")
	}
	return h, nil
}
