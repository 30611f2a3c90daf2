package parking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yard-service/internal/clock"
)

func newTestEngine(t *testing.T, clk clock.Clock, opts ...EngineOption) *Engine {
	t.Helper()
	reg := newTestRegistry(t)
	return NewEngine(reg, NewMovementLog(), clk, opts...)
}

func TestParkAndRelease(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	spot, err := engine.Park(ctx, "abc-1d23", ParkOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.ID != 1 {
		t.Errorf("Expected spot 1, got %d", spot.ID)
	}
	if spot.Status != StatusOccupied {
		t.Errorf("Expected status O, got %s", spot.Status)
	}
	if spot.EnteredAt == nil || !spot.EnteredAt.Equal(clk.Now()) {
		t.Errorf("Expected EnteredAt %v, got %v", clk.Now(), spot.EnteredAt)
	}

	clk.Advance(10 * time.Minute)

	released, err := engine.Release(ctx, "ABC1D23")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if released.Status != StatusFree {
		t.Errorf("Expected status L after release, got %s", released.Status)
	}

	events := engine.Movements().EventsBetween(time.Time{}, clk.Now())
	if len(events) != 2 {
		t.Fatalf("Expected 2 movement events, got %d", len(events))
	}
	if events[0].Type != EventEntry {
		t.Errorf("Expected first event ENTRADA, got %s", events[0].Type)
	}
	if events[1].Type != EventExit {
		t.Errorf("Expected second event SAIDA, got %s", events[1].Type)
	}
	if events[1].DurationMinutes != 10 {
		t.Errorf("Expected 10 minute stay, got %d", events[1].DurationMinutes)
	}
}

func TestParkDurationFloorsPartialMinutes(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	if _, err := engine.Park(ctx, "ABC1D23", ParkOptions{}); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	clk.Advance(9*time.Minute + 59*time.Second)

	if _, err := engine.Release(ctx, "ABC1D23"); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}

	events := engine.Movements().EventsBetween(time.Time{}, clk.Now())
	exit := events[len(events)-1]
	if exit.DurationMinutes != 9 {
		t.Errorf("Expected floored duration 9 minutes, got %d", exit.DurationMinutes)
	}
}

func TestParkAlreadyParked(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	if _, err := engine.Park(ctx, "ABC1D23", ParkOptions{}); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if _, err := engine.Park(ctx, "abc1d23", ParkOptions{}); !errors.Is(err, ErrAlreadyParked) {
		t.Errorf("Expected ErrAlreadyParked, got %v", err)
	}
}

func TestReleaseNotParked(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	if _, err := engine.Release(ctx, "ABC1D23"); !errors.Is(err, ErrNotParked) {
		t.Errorf("Expected ErrNotParked for unknown plate, got %v", err)
	}

	if _, err := engine.Park(ctx, "ABC1D23", ParkOptions{}); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if _, err := engine.Release(ctx, "ABC1D23"); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	// Second release without an intervening park.
	if _, err := engine.Release(ctx, "ABC1D23"); !errors.Is(err, ErrNotParked) {
		t.Errorf("Expected ErrNotParked on double release, got %v", err)
	}
}

func TestParkExplicitSpot(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	spot, err := engine.Park(ctx, "ABC1D23", ParkOptions{SpotID: 3, Note: "chave no painel"})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.ID != 3 {
		t.Errorf("Expected spot 3, got %d", spot.ID)
	}
	if spot.Note != "chave no painel" {
		t.Errorf("Expected note to be stored, got %q", spot.Note)
	}

	// Occupied explicit spot.
	if _, err := engine.Park(ctx, "XYZ9A88", ParkOptions{SpotID: 3}); !errors.Is(err, ErrSpotUnavailable) {
		t.Errorf("Expected ErrSpotUnavailable for occupied spot, got %v", err)
	}
	// Missing explicit spot.
	if _, err := engine.Park(ctx, "XYZ9A88", ParkOptions{SpotID: 42}); !errors.Is(err, ErrSpotUnavailable) {
		t.Errorf("Expected ErrSpotUnavailable for missing spot, got %v", err)
	}
	// Maintenance explicit spot.
	if _, err := engine.Registry().SetStatus(1, StatusMaintenance); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if _, err := engine.Park(ctx, "XYZ9A88", ParkOptions{SpotID: 1}); !errors.Is(err, ErrSpotUnavailable) {
		t.Errorf("Expected ErrSpotUnavailable for maintenance spot, got %v", err)
	}
}

func TestParkYardScope(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	spot, err := engine.Park(ctx, "ABC1D23", ParkOptions{YardID: 2})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.YardID != 2 {
		t.Errorf("Expected allocation in yard 2, got yard %d", spot.YardID)
	}

	// Yard 2 had a single spot.
	if _, err := engine.Park(ctx, "XYZ9A88", ParkOptions{YardID: 2}); !errors.Is(err, ErrNoSpotAvailable) {
		t.Errorf("Expected ErrNoSpotAvailable, got %v", err)
	}
}

func TestParkNoSpotAvailable(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	for _, plate := range []string{"AAA1A11", "BBB2B22", "CCC3C33"} {
		if _, err := engine.Park(ctx, plate, ParkOptions{}); err != nil {
			t.Fatalf("Unexpected error: %s", err.Error())
		}
	}

	if _, err := engine.Park(ctx, "DDD4D44", ParkOptions{}); !errors.Is(err, ErrNoSpotAvailable) {
		t.Errorf("Expected ErrNoSpotAvailable, got %v", err)
	}
}

func TestParkWithoutAutoRegister(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk, WithAutoRegister(false))
	ctx := context.Background()

	if _, err := engine.Park(ctx, "ABC1D23", ParkOptions{}); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("Expected ErrVehicleNotFound, got %v", err)
	}

	if _, err := engine.Registry().RegisterVehicle("ABC1D23", ""); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if _, err := engine.Park(ctx, "ABC1D23", ParkOptions{}); err != nil {
		t.Errorf("Unexpected error after registration: %v", err)
	}
}

func TestParkInvalidPlate(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)

	if _, err := engine.Park(context.Background(), "bogus", ParkOptions{}); !errors.Is(err, ErrInvalidPlate) {
		t.Errorf("Expected ErrInvalidPlate, got %v", err)
	}
	if _, err := engine.Release(context.Background(), "bogus"); !errors.Is(err, ErrInvalidPlate) {
		t.Errorf("Expected ErrInvalidPlate, got %v", err)
	}
}

func TestConcurrentParkSingleSpot(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	reg := NewRegistry()
	if _, err := reg.AddYard(1, "Patio"); err != nil {
		t.Fatalf("Failed to add yard: %v", err)
	}
	if _, err := reg.AddSpot(1, 1, "A-01"); err != nil {
		t.Fatalf("Failed to add spot: %v", err)
	}
	engine := NewEngine(reg, NewMovementLog(), clk)

	plates := []string{"AAA1A11", "BBB2B22", "CCC3C33", "DDD4D44", "EEE5E55"}

	var wg sync.WaitGroup
	results := make(chan error, len(plates))
	for _, plate := range plates {
		wg.Add(1)
		go func(plate string) {
			defer wg.Done()
			_, err := engine.Park(context.Background(), plate, ParkOptions{})
			results <- err
		}(plate)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, ErrNoSpotAvailable) {
			t.Errorf("Expected ErrNoSpotAvailable for losers, got %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly 1 successful park, got %d", successes)
	}
	if engine.Movements().CountBetween(EventEntry, time.Time{}, clk.Now()) != 1 {
		t.Errorf("Expected exactly 1 entry event")
	}
}

func TestConcurrentParkAndReleaseInvariant(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	engine := newTestEngine(t, clk)
	ctx := context.Background()

	plates := []string{"AAA1A11", "BBB2B22", "CCC3C33", "DDD4D44", "EEE5E55", "FFF6F66"}

	var wg sync.WaitGroup
	for _, plate := range plates {
		wg.Add(1)
		go func(plate string) {
			defer wg.Done()
			if _, err := engine.Park(ctx, plate, ParkOptions{}); err == nil {
				_, _ = engine.Release(ctx, plate)
			}
		}(plate)
	}
	wg.Wait()

	// Every successful park was matched by a release, so every spot is free
	// and entries equal exits.
	for _, s := range engine.Registry().Spots() {
		if s.Status != StatusFree {
			t.Errorf("Expected spot %d free, got %s", s.ID, s.Status)
		}
	}
	entries := engine.Movements().CountBetween(EventEntry, time.Time{}, clk.Now())
	exits := engine.Movements().CountBetween(EventExit, time.Time{}, clk.Now())
	if entries != exits {
		t.Errorf("Expected balanced entries and exits, got %d entries and %d exits", entries, exits)
	}
}
