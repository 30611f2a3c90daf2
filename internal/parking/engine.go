package parking

import (
	"context"
	"errors"
	"fmt"

	"yard-service/internal/clock"
)

// Engine performs the park and release transitions. The registry validates
// and applies each transition under its write lock, so two racing calls for
// the same spot or vehicle resolve to exactly one success.
type Engine struct {
	reg          *Registry
	log          *MovementLog
	clk          clock.Clock
	autoRegister bool
}

type EngineOption func(*Engine)

// WithAutoRegister controls whether an unknown plate is registered on first
// park (deployment policy; see ErrVehicleNotFound when disabled).
func WithAutoRegister(enabled bool) EngineOption {
	return func(e *Engine) {
		e.autoRegister = enabled
	}
}

func NewEngine(reg *Registry, log *MovementLog, clk clock.Clock, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:          reg,
		log:          log,
		clk:          clk,
		autoRegister: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParkOptions narrows spot selection. SpotID pins an explicit spot; YardID
// restricts the free-spot search to one yard. Zero values mean unset.
type ParkOptions struct {
	SpotID int64
	YardID int64
	Note   string
}

// Park allocates a spot to the vehicle with the given plate and appends an
// entry event. The returned spot is the now-occupied one.
func (e *Engine) Park(ctx context.Context, rawPlate string, opts ParkOptions) (Spot, error) {
	plate, err := NormalizePlate(rawPlate)
	if err != nil {
		return Spot{}, err
	}

	v, ok := e.reg.VehicleByPlate(plate)
	if !ok {
		if !e.autoRegister {
			return Spot{}, fmt.Errorf("plate %s: %w", plate, ErrVehicleNotFound)
		}
		v, err = e.reg.RegisterVehicle(plate, "")
		if err != nil {
			return Spot{}, err
		}
	}
	if v.Parked() {
		return Spot{}, fmt.Errorf("plate %s: %w", plate, ErrAlreadyParked)
	}

	now := e.clk.Now()

	if opts.SpotID != 0 {
		// Explicit spot: must exist and be free.
		s, ok := e.reg.Spot(opts.SpotID)
		if !ok || s.Status != StatusFree {
			return Spot{}, fmt.Errorf("spot %d: %w", opts.SpotID, ErrSpotUnavailable)
		}
		spot, err := e.reg.occupy(opts.SpotID, v.ID, now, opts.Note)
		if err != nil {
			return Spot{}, err
		}
		e.appendEntry(v, spot)
		return spot, nil
	}

	// Automatic selection. The free spot found can be taken by a racing
	// caller before occupy re-validates; retry selection until allocation
	// sticks or no free spot remains.
	for {
		candidate, err := e.reg.FindFreeSpot(opts.YardID)
		if err != nil {
			return Spot{}, err
		}
		spot, err := e.reg.occupy(candidate.ID, v.ID, now, opts.Note)
		if err == nil {
			e.appendEntry(v, spot)
			return spot, nil
		}
		// Losing the race for one candidate spot is retryable; everything
		// else (vehicle grabbed elsewhere, vehicle gone) is a real failure.
		if !errors.Is(err, ErrSpotUnavailable) {
			return Spot{}, err
		}
	}
}

// Release frees the spot occupied by the vehicle with the given plate and
// appends an exit event carrying the stay duration in whole minutes. A second
// release without an intervening park fails with ErrNotParked.
func (e *Engine) Release(ctx context.Context, rawPlate string) (Spot, error) {
	plate, err := NormalizePlate(rawPlate)
	if err != nil {
		return Spot{}, err
	}

	v, ok := e.reg.VehicleByPlate(plate)
	if !ok {
		return Spot{}, fmt.Errorf("plate %s: %w", plate, ErrNotParked)
	}

	now := e.clk.Now()
	spot, minutes, err := e.reg.vacate(plate, now)
	if err != nil {
		return Spot{}, err
	}

	e.log.Append(MovementEvent{
		VehicleID:       v.ID,
		Plate:           plate,
		SpotID:          spot.ID,
		YardID:          spot.YardID,
		Type:            EventExit,
		Timestamp:       now,
		DurationMinutes: minutes,
	})
	return spot, nil
}

func (e *Engine) appendEntry(v Vehicle, spot Spot) {
	e.log.Append(MovementEvent{
		VehicleID: v.ID,
		Plate:     v.Plate,
		SpotID:    spot.ID,
		YardID:    spot.YardID,
		Type:      EventEntry,
		Timestamp: *spot.EnteredAt,
	})
}

func (e *Engine) Registry() *Registry { return e.reg }

func (e *Engine) Movements() *MovementLog { return e.log }
