package parking

import "time"

// SpotStatus uses the single-letter codes carried on the wire:
// L = livre (free), O = ocupado (occupied), M = manutenção (maintenance).
type SpotStatus string

const (
	StatusFree        SpotStatus = "L"
	StatusOccupied    SpotStatus = "O"
	StatusMaintenance SpotStatus = "M"
)

type Yard struct {
	ID   int64
	Name string
}

// Spot is a single parking box inside a yard. A spot is Occupied exactly when
// VehicleID is set and EnteredAt is set with no ExitedAt.
type Spot struct {
	ID        int64
	YardID    int64
	Name      string
	Status    SpotStatus
	VehicleID int64
	EnteredAt *time.Time
	ExitedAt  *time.Time
	Note      string
}

func (s *Spot) Occupied() bool { return s.Status == StatusOccupied }

func (s *Spot) occupy(vehicleID int64, at time.Time, note string) {
	entered := at
	s.Status = StatusOccupied
	s.VehicleID = vehicleID
	s.EnteredAt = &entered
	s.ExitedAt = nil
	s.Note = note
}

func (s *Spot) vacate(at time.Time) {
	exited := at
	s.Status = StatusFree
	s.VehicleID = 0
	s.ExitedAt = &exited
}
