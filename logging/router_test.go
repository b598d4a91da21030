package logging_test

import (
	"context"
	"testing"
	"time"

	"battle-arena/server/logging"
	"battle-arena/server/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	mem := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, mem
}

func waitForEvents(t *testing.T, mem *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := mem.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(mem.Events()))
	return nil
}

func TestRouterDeliversToSink(t *testing.T) {
	router, mem := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:  "combat.damage",
		Tick:  7,
		Actor: logging.EntityRef{ID: "champ-0", Kind: logging.EntityKindChampion},
	})

	events := waitForEvents(t, mem, 1)
	if events[0].Type != "combat.damage" || events[0].Tick != 7 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router should stamp event time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, mem := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "network.connection_opened", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "network.protocol_error", Severity: logging.SeverityWarn})

	events := waitForEvents(t, mem, 1)
	for _, ev := range events {
		if ev.Severity < logging.SeverityWarn {
			t.Fatalf("filtered event leaked: %+v", ev)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	router.Close(ctx)
}

func TestRouterMergesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"node": "arena-1"}
	router, mem := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "lifecycle.match_started", Severity: logging.SeverityInfo})

	events := waitForEvents(t, mem, 1)
	if events[0].Extra["node"] != "arena-1" {
		t.Fatalf("configured field missing: %+v", events[0].Extra)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	router.Close(ctx)
}
