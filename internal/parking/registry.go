package parking

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry holds every yard, spot and vehicle in id-indexed maps. It is the
// one piece of state mutated by concurrent request handlers, so every method
// takes the registry lock; mutations validate the current state under the
// same lock they mutate it in.
type Registry struct {
	mu            sync.RWMutex
	yards         map[int64]*Yard
	spots         map[int64]*Spot
	vehicles      map[int64]*Vehicle
	byPlate       map[string]int64
	nextVehicleID int64
}

func NewRegistry() *Registry {
	return &Registry{
		yards:    make(map[int64]*Yard),
		spots:    make(map[int64]*Spot),
		vehicles: make(map[int64]*Vehicle),
		byPlate:  make(map[string]int64),
	}
}

func (r *Registry) AddYard(id int64, name string) (Yard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.yards[id]; ok {
		return Yard{}, fmt.Errorf("yard %d: %w", id, ErrDuplicateID)
	}
	y := &Yard{ID: id, Name: name}
	r.yards[id] = y
	return *y, nil
}

func (r *Registry) AddSpot(id, yardID int64, name string) (Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.yards[yardID]; !ok {
		return Spot{}, fmt.Errorf("yard %d: %w", yardID, ErrYardNotFound)
	}
	if _, ok := r.spots[id]; ok {
		return Spot{}, fmt.Errorf("spot %d: %w", id, ErrDuplicateID)
	}
	s := &Spot{ID: id, YardID: yardID, Name: name, Status: StatusFree}
	r.spots[id] = s
	return *s, nil
}

func (r *Registry) RegisterVehicle(plate, model string) (Vehicle, error) {
	normalized, err := NormalizePlate(plate)
	if err != nil {
		return Vehicle{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPlate[normalized]; ok {
		return Vehicle{}, fmt.Errorf("plate %s: %w", normalized, ErrDuplicatePlate)
	}
	r.nextVehicleID++
	v := &Vehicle{ID: r.nextVehicleID, Plate: normalized, Model: model}
	r.vehicles[v.ID] = v
	r.byPlate[normalized] = v.ID
	return *v, nil
}

func (r *Registry) Yard(id int64) (Yard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	y, ok := r.yards[id]
	if !ok {
		return Yard{}, false
	}
	return *y, true
}

func (r *Registry) Yards() []Yard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Yard, 0, len(r.yards))
	for _, y := range r.yards {
		out = append(out, *y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Spot(id int64) (Spot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.spots[id]
	if !ok {
		return Spot{}, false
	}
	return *s, true
}

// Spots returns a copy of every spot, ordered by id.
func (r *Registry) Spots() []Spot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spot, 0, len(r.spots))
	for _, s := range r.spots {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) SpotsInYard(yardID int64) ([]Spot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.yards[yardID]; !ok {
		return nil, fmt.Errorf("yard %d: %w", yardID, ErrYardNotFound)
	}
	var out []Spot
	for _, s := range r.spots {
		if s.YardID == yardID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindFreeSpot returns the free spot with the lowest id in the given yard, or
// across all yards when yardID is zero. The deterministic policy keeps
// allocation reproducible.
func (r *Registry) FindFreeSpot(yardID int64) (Spot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if yardID != 0 {
		if _, ok := r.yards[yardID]; !ok {
			return Spot{}, fmt.Errorf("yard %d: %w", yardID, ErrYardNotFound)
		}
	}
	var best *Spot
	for _, s := range r.spots {
		if s.Status != StatusFree {
			continue
		}
		if yardID != 0 && s.YardID != yardID {
			continue
		}
		if best == nil || s.ID < best.ID {
			best = s
		}
	}
	if best == nil {
		return Spot{}, ErrNoSpotAvailable
	}
	return *best, nil
}

func (r *Registry) VehicleByPlate(plate string) (Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPlate[plate]
	if !ok {
		return Vehicle{}, false
	}
	return *r.vehicles[id], true
}

func (r *Registry) VehicleByID(id int64) (Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return Vehicle{}, false
	}
	return *v, true
}

func (r *Registry) VehicleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vehicles)
}

// FindSpotByPlate returns the spot currently occupied by the vehicle with the
// given normalized plate.
func (r *Registry) FindSpotByPlate(plate string) (Spot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPlate[plate]
	if !ok {
		return Spot{}, fmt.Errorf("plate %s: %w", plate, ErrVehicleNotFound)
	}
	v := r.vehicles[id]
	if v.SpotID == 0 {
		return Spot{}, fmt.Errorf("plate %s: %w", plate, ErrNotParked)
	}
	return *r.spots[v.SpotID], nil
}

// SetStatus toggles a spot between free and maintenance. Occupied spots must
// be released through the allocation engine first.
func (r *Registry) SetStatus(spotID int64, status SpotStatus) (Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spots[spotID]
	if !ok {
		return Spot{}, fmt.Errorf("spot %d: %w", spotID, ErrSpotNotFound)
	}
	if s.Status == StatusOccupied || status == StatusOccupied {
		return Spot{}, fmt.Errorf("spot %d: %w", spotID, ErrSpotUnavailable)
	}
	s.Status = status
	return *s, nil
}

// occupy performs the atomic occupied transition. State is re-validated under
// the write lock so a racing status change cannot be lost.
func (r *Registry) occupy(spotID, vehicleID int64, at time.Time, note string) (Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spots[spotID]
	if !ok {
		return Spot{}, fmt.Errorf("spot %d: %w", spotID, ErrSpotUnavailable)
	}
	if s.Status != StatusFree {
		return Spot{}, fmt.Errorf("spot %d: %w", spotID, ErrSpotUnavailable)
	}
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return Spot{}, fmt.Errorf("vehicle %d: %w", vehicleID, ErrVehicleNotFound)
	}
	if v.SpotID != 0 {
		return Spot{}, fmt.Errorf("plate %s: %w", v.Plate, ErrAlreadyParked)
	}
	s.occupy(vehicleID, at, note)
	v.SpotID = s.ID
	return *s, nil
}

// vacate performs the atomic free transition and returns the released spot
// plus the stay duration in whole minutes.
func (r *Registry) vacate(plate string, at time.Time) (Spot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPlate[plate]
	if !ok {
		return Spot{}, 0, fmt.Errorf("plate %s: %w", plate, ErrNotParked)
	}
	v := r.vehicles[id]
	if v.SpotID == 0 {
		return Spot{}, 0, fmt.Errorf("plate %s: %w", plate, ErrNotParked)
	}
	s := r.spots[v.SpotID]
	var minutes int64
	if s.EnteredAt != nil {
		minutes = int64(at.Sub(*s.EnteredAt).Minutes())
	}
	s.vacate(at)
	v.SpotID = 0
	return *s, minutes, nil
}
