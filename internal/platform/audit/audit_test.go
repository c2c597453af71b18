package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := LogRecorder(zerolog.New(&buf))

	err := r.Record(context.Background(), Event{
		Subject:    "kc-user",
		ResourceID: "ABC123",
		Policy:     "patient.read",
		Outcome:    OutcomeDenied,
		Method:     "GET",
		Path:       "/api/v1/UserProfile/ABC123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q", buf.String())
	}
	if line["outcome"] != OutcomeDenied {
		t.Errorf("expected outcome denied, got %v", line["outcome"])
	}
	if line["resource_id"] != "ABC123" {
		t.Errorf("expected resource_id ABC123, got %v", line["resource_id"])
	}
	if id, _ := line["audit_id"].(string); id == "" {
		t.Error("expected generated audit_id")
	}
	if line["component"] != "audit" {
		t.Errorf("expected component audit, got %v", line["component"])
	}
}

func TestPrepare_KeepsExistingValues(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Event{ID: id, Recorded: at}
	prepare(&e)
	if e.ID != id || !e.Recorded.Equal(at) {
		t.Errorf("prepare overwrote caller values: %+v", e)
	}
}

func TestPrepare_ClampsOversizedFields(t *testing.T) {
	long := strings.Repeat("A", 5000)
	e := Event{
		Subject:    long,
		ResourceID: strings.Repeat("é", 200),
		Path:       "/api/v1/UserProfile/" + long,
		UserAgent:  "bad\xffagent",
	}
	prepare(&e)

	if len(e.Subject) != MaxFieldLen {
		t.Errorf("expected subject clamped to %d bytes, got %d", MaxFieldLen, len(e.Subject))
	}
	if len(e.ResourceID) > MaxFieldLen || !utf8.ValidString(e.ResourceID) {
		t.Errorf("expected valid resource id within %d bytes, got %d", MaxFieldLen, len(e.ResourceID))
	}
	if len(e.Path) != 4*MaxFieldLen {
		t.Errorf("expected path clamped to %d bytes, got %d", 4*MaxFieldLen, len(e.Path))
	}
	if e.UserAgent != "bad\uFFFDagent" {
		t.Errorf("expected invalid UTF-8 replaced, got %q", e.UserAgent)
	}
}

func TestMemoryStore_OversizedResourceID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := strings.Repeat("X", 300)

	if err := s.Record(ctx, Event{ResourceID: id, Outcome: OutcomeDenied}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, total, err := s.ListByResource(ctx, id, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || events[0].Outcome != OutcomeDenied {
		t.Errorf("expected the denied event to be listed, got %d events", total)
	}
}

func TestMemoryStore_ListByResource(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Record(ctx, Event{ResourceID: "ABC123", Outcome: OutcomeAllowed, Recorded: base.Add(time.Duration(i) * time.Minute)})
	}
	s.Record(ctx, Event{ResourceID: "XYZ999", Outcome: OutcomeDenied})

	events, total, err := s.ListByResource(ctx, "ABC123", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Recorded.After(events[1].Recorded) {
		t.Error("expected newest first")
	}

	events, _, _ = s.ListByResource(ctx, "ABC123", 10, 4)
	if len(events) != 1 {
		t.Errorf("expected 1 event at offset 4, got %d", len(events))
	}

	events, total, _ = s.ListByResource(ctx, "ABC123", 10, 10)
	if len(events) != 0 || total != 5 {
		t.Errorf("expected empty page past the end, got %d/%d", len(events), total)
	}
}

func TestMultiRecorder(t *testing.T) {
	mem := NewMemoryStore()
	failing := RecorderFunc(func(context.Context, Event) error { return errors.New("db down") })

	err := MultiRecorder(failing, mem).Record(context.Background(), Event{ResourceID: "ABC123"})
	if err == nil {
		t.Fatal("expected error from failing recorder")
	}

	events, _, _ := mem.ListByResource(context.Background(), "ABC123", 10, 0)
	if len(events) != 1 {
		t.Fatalf("expected remaining recorder to receive event, got %d", len(events))
	}
	if events[0].ID == uuid.Nil {
		t.Error("expected id assigned before fan-out")
	}
}
