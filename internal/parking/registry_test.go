package parking

import (
	"errors"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	if _, err := reg.AddYard(1, "Patio Central"); err != nil {
		t.Fatalf("Failed to add yard: %v", err)
	}
	if _, err := reg.AddYard(2, "Patio Norte"); err != nil {
		t.Fatalf("Failed to add yard: %v", err)
	}
	for _, spot := range []struct {
		id, yard int64
		name     string
	}{
		{1, 1, "A-01"},
		{2, 1, "A-02"},
		{3, 2, "B-01"},
	} {
		if _, err := reg.AddSpot(spot.id, spot.yard, spot.name); err != nil {
			t.Fatalf("Failed to add spot %d: %v", spot.id, err)
		}
	}
	return reg
}

func TestAddYardDuplicate(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.AddYard(1, "Again"); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}

func TestAddSpotValidation(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.AddSpot(99, 42, "X-01"); !errors.Is(err, ErrYardNotFound) {
		t.Errorf("Expected ErrYardNotFound, got %v", err)
	}
	if _, err := reg.AddSpot(1, 1, "A-01"); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}

func TestRegisterVehicle(t *testing.T) {
	reg := newTestRegistry(t)

	v, err := reg.RegisterVehicle("abc-1d23", "CG 160")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if v.Plate != "ABC1D23" {
		t.Errorf("Expected normalized plate ABC1D23, got %s", v.Plate)
	}
	if v.ID != 1 {
		t.Errorf("Expected vehicle id 1, got %d", v.ID)
	}

	if _, err := reg.RegisterVehicle("ABC1D23", ""); !errors.Is(err, ErrDuplicatePlate) {
		t.Errorf("Expected ErrDuplicatePlate, got %v", err)
	}
	if _, err := reg.RegisterVehicle("not a plate", ""); !errors.Is(err, ErrInvalidPlate) {
		t.Errorf("Expected ErrInvalidPlate, got %v", err)
	}
}

func TestFindFreeSpotPicksLowestID(t *testing.T) {
	reg := newTestRegistry(t)

	spot, err := reg.FindFreeSpot(0)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.ID != 1 {
		t.Errorf("Expected spot 1, got %d", spot.ID)
	}

	// Flag spot 1 and the search must move to the next id.
	if _, err := reg.SetStatus(1, StatusMaintenance); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	spot, err = reg.FindFreeSpot(0)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.ID != 2 {
		t.Errorf("Expected spot 2, got %d", spot.ID)
	}
}

func TestFindFreeSpotScopedToYard(t *testing.T) {
	reg := newTestRegistry(t)

	spot, err := reg.FindFreeSpot(2)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if spot.ID != 3 {
		t.Errorf("Expected spot 3 in yard 2, got %d", spot.ID)
	}

	if _, err := reg.FindFreeSpot(42); !errors.Is(err, ErrYardNotFound) {
		t.Errorf("Expected ErrYardNotFound, got %v", err)
	}
}

func TestFindFreeSpotExhausted(t *testing.T) {
	reg := newTestRegistry(t)

	for _, id := range []int64{1, 2, 3} {
		if _, err := reg.SetStatus(id, StatusMaintenance); err != nil {
			t.Fatalf("Unexpected error: %s", err.Error())
		}
	}

	if _, err := reg.FindFreeSpot(0); !errors.Is(err, ErrNoSpotAvailable) {
		t.Errorf("Expected ErrNoSpotAvailable, got %v", err)
	}
}

func TestSetStatusRejectsOccupiedTransitions(t *testing.T) {
	reg := newTestRegistry(t)

	v, err := reg.RegisterVehicle("ABC1D23", "")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if _, err := reg.occupy(1, v.ID, time.Now(), ""); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}

	if _, err := reg.SetStatus(1, StatusMaintenance); !errors.Is(err, ErrSpotUnavailable) {
		t.Errorf("Expected ErrSpotUnavailable for occupied spot, got %v", err)
	}
	if _, err := reg.SetStatus(2, StatusOccupied); !errors.Is(err, ErrSpotUnavailable) {
		t.Errorf("Expected ErrSpotUnavailable for occupied target, got %v", err)
	}
	if _, err := reg.SetStatus(42, StatusMaintenance); !errors.Is(err, ErrSpotNotFound) {
		t.Errorf("Expected ErrSpotNotFound, got %v", err)
	}
}

func TestSpotsOrderedByID(t *testing.T) {
	reg := newTestRegistry(t)

	spots := reg.Spots()
	if len(spots) != 3 {
		t.Fatalf("Expected 3 spots, got %d", len(spots))
	}
	for i, s := range spots {
		if s.ID != int64(i+1) {
			t.Errorf("Expected spot %d at position %d, got %d", i+1, i, s.ID)
		}
	}
}
