package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store/memory"
)

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), memory.New(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.FlagCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithFlags(t *testing.T) {
	ms := memory.New()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, f := range []*model.Flag{
		{Name: "zeta", Enabled: false, Description: "Second", UpdatedAt: now},
		{Name: "agent_triggers", Enabled: true, Description: "Enable agent triggers functionality", UpdatedAt: now},
	} {
		if err := ms.Put(ctx, f); err != nil {
			t.Fatalf("put %s: %v", f.Name, err)
		}
	}

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 flags
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.FlagCount != 2 {
		t.Fatalf("header flag_count = %d", h.FlagCount)
	}

	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "flag" || rec1.Data.Name != "agent_triggers" || !rec1.Data.Enabled {
		t.Errorf("line 1 = %+v", rec1.Data)
	}
	if rec2.Data.Name != "zeta" || rec2.Data.Enabled {
		t.Errorf("line 2 = %+v", rec2.Data)
	}
	if !rec1.Data.UpdatedAt.Equal(now) {
		t.Errorf("updated_at = %v, want %v", rec1.Data.UpdatedAt, now)
	}
	if rec1.Data.Description != "Enable agent triggers functionality" {
		t.Errorf("description = %q", rec1.Data.Description)
	}
}

func TestExportJSONL_StoreError(t *testing.T) {
	ms := memory.New()
	ms.SetUnavailable(true)
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err == nil {
		t.Fatal("expected error from unavailable store")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", buf.String())
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestReadHeader(t *testing.T) {
	ms := memory.New()
	for _, n := range []string{"a", "b"} {
		if err := ms.Put(context.Background(), &model.Flag{Name: n, UpdatedAt: time.Now()}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	h, err := readHeader(buf.Bytes())
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if h.Version != "1" || h.FlagCount != 2 {
		t.Errorf("header = %+v", h)
	}

	if _, err := readHeader([]byte(`{"type":"flag","data":{}}`)); err == nil {
		t.Error("expected an error for a snapshot without a header")
	}
}
