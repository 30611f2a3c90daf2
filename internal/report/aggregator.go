package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"yard-service/internal/parking"
)

var (
	ErrInvalidRange    = errors.New("invalid date range")
	ErrInvalidArgument = errors.New("invalid argument")
)

// DefaultMaxRangeDays caps the span accepted by time-ranged reports, guarding
// against unbounded scans over the movement log.
const DefaultMaxRangeDays = 360

// Aggregator computes derived reports from the spot registry and the movement
// log. Every method is a pure read; registry access is a short-lived snapshot
// copy so reports never hold up allocation.
type Aggregator struct {
	reg          *parking.Registry
	log          *parking.MovementLog
	maxRangeDays int
}

type AggregatorOption func(*Aggregator)

// WithMaxRangeDays overrides the maximum accepted report span.
func WithMaxRangeDays(days int) AggregatorOption {
	return func(a *Aggregator) {
		if days > 0 {
			a.maxRangeDays = days
		}
	}
}

func NewAggregator(reg *parking.Registry, log *parking.MovementLog, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		reg:          reg,
		log:          log,
		maxRangeDays: DefaultMaxRangeDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type YardOccupancy struct {
	YardID           int64   `json:"patioId"`
	YardName         string  `json:"nomePatio"`
	TotalSpots       int     `json:"totalBoxes"`
	FreeSpots        int     `json:"boxesLivres"`
	OccupiedSpots    int     `json:"boxesOcupados"`
	MaintenanceSpots int     `json:"boxesManutencao"`
	OccupancyRate    float64 `json:"taxaOcupacao"`
}

type OccupancySnapshot struct {
	Yards            []YardOccupancy `json:"patios"`
	TotalSpots       int             `json:"totalBoxes"`
	FreeSpots        int             `json:"boxesLivres"`
	OccupiedSpots    int             `json:"boxesOcupados"`
	MaintenanceSpots int             `json:"boxesManutencao"`
	OccupancyRate    float64         `json:"taxaOcupacao"`
}

// Occupancy returns the current per-yard occupancy plus the overall rollup.
// O(number of spots).
func (a *Aggregator) Occupancy() OccupancySnapshot {
	byYard := make(map[int64]*YardOccupancy)
	for _, y := range a.reg.Yards() {
		byYard[y.ID] = &YardOccupancy{YardID: y.ID, YardName: y.Name}
	}

	var snap OccupancySnapshot
	for _, s := range a.reg.Spots() {
		yo, ok := byYard[s.YardID]
		if !ok {
			continue
		}
		yo.TotalSpots++
		snap.TotalSpots++
		switch s.Status {
		case parking.StatusFree:
			yo.FreeSpots++
			snap.FreeSpots++
		case parking.StatusOccupied:
			yo.OccupiedSpots++
			snap.OccupiedSpots++
		case parking.StatusMaintenance:
			yo.MaintenanceSpots++
			snap.MaintenanceSpots++
		}
	}

	yards := make([]YardOccupancy, 0, len(byYard))
	for _, yo := range byYard {
		yo.OccupancyRate = rate(yo.OccupiedSpots, yo.TotalSpots)
		yards = append(yards, *yo)
	}
	sort.Slice(yards, func(i, j int) bool { return yards[i].YardID < yards[j].YardID })

	snap.Yards = yards
	snap.OccupancyRate = rate(snap.OccupiedSpots, snap.TotalSpots)
	return snap
}

// YardOccupancy returns the occupancy of a single yard.
func (a *Aggregator) YardOccupancy(yardID int64) (YardOccupancy, error) {
	y, ok := a.reg.Yard(yardID)
	if !ok {
		return YardOccupancy{}, fmt.Errorf("yard %d: %w", yardID, parking.ErrYardNotFound)
	}
	spots, err := a.reg.SpotsInYard(yardID)
	if err != nil {
		return YardOccupancy{}, err
	}
	yo := YardOccupancy{YardID: y.ID, YardName: y.Name}
	for _, s := range spots {
		yo.TotalSpots++
		switch s.Status {
		case parking.StatusFree:
			yo.FreeSpots++
		case parking.StatusOccupied:
			yo.OccupiedSpots++
		case parking.StatusMaintenance:
			yo.MaintenanceSpots++
		}
	}
	yo.OccupancyRate = rate(yo.OccupiedSpots, yo.TotalSpots)
	return yo, nil
}

// rate is occupied/total*100, 0 when the yard has no spots.
func rate(occupied, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*100*100) / 100
}

type DayMovement struct {
	Date    string `json:"data"`
	Entries int    `json:"entradas"`
	Exits   int    `json:"saidas"`
}

type MovementReport struct {
	Days         []DayMovement `json:"dias"`
	TotalEntries int           `json:"totalEntradas"`
	TotalExits   int           `json:"totalSaidas"`
}

// DailyMovement sums movement events per day over [start 00:00, end 23:59:59].
// Fails with ErrInvalidRange when end precedes start or the span exceeds the
// configured maximum.
func (a *Aggregator) DailyMovement(start, end time.Time) (MovementReport, error) {
	startDay := dayStart(start)
	endDay := dayStart(end)
	if endDay.Before(startDay) {
		return MovementReport{}, fmt.Errorf("%w: end before start", ErrInvalidRange)
	}
	if int(endDay.Sub(startDay).Hours()/24) > a.maxRangeDays {
		return MovementReport{}, fmt.Errorf("%w: span exceeds %d days", ErrInvalidRange, a.maxRangeDays)
	}

	events := a.log.EventsBetween(startDay, dayEnd(end))

	counts := make(map[string]*DayMovement)
	var report MovementReport
	for _, e := range events {
		key := e.Timestamp.Format("2006-01-02")
		dm, ok := counts[key]
		if !ok {
			dm = &DayMovement{Date: key}
			counts[key] = dm
		}
		switch e.Type {
		case parking.EventEntry:
			dm.Entries++
			report.TotalEntries++
		case parking.EventExit:
			dm.Exits++
			report.TotalExits++
		}
	}

	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if dm, ok := counts[key]; ok {
			report.Days = append(report.Days, *dm)
		} else {
			report.Days = append(report.Days, DayMovement{Date: key})
		}
	}
	return report, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

type TopEntry struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Count int    `json:"total"`
}

// TopSpots ranks spots by movement count over the range, descending, ties
// broken by id ascending, truncated to limit.
func (a *Aggregator) TopSpots(limit int, start, end time.Time) ([]TopEntry, error) {
	return a.top(limit, start, end, func(e parking.MovementEvent) int64 { return e.SpotID },
		func(id int64) string {
			if s, ok := a.reg.Spot(id); ok {
				return s.Name
			}
			return ""
		})
}

// TopVehicles ranks vehicles by movement count over the range.
func (a *Aggregator) TopVehicles(limit int, start, end time.Time) ([]TopEntry, error) {
	return a.top(limit, start, end, func(e parking.MovementEvent) int64 { return e.VehicleID },
		func(id int64) string {
			if v, ok := a.reg.VehicleByID(id); ok {
				return v.Plate
			}
			return ""
		})
}

func (a *Aggregator) top(limit int, start, end time.Time, key func(parking.MovementEvent) int64, label func(int64) string) ([]TopEntry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1", ErrInvalidArgument)
	}
	if dayStart(end).Before(dayStart(start)) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRange)
	}

	counts := make(map[int64]int)
	for _, e := range a.log.EventsBetween(dayStart(start), dayEnd(end)) {
		counts[key(e)]++
	}

	entries := make([]TopEntry, 0, len(counts))
	for id, n := range counts {
		entries = append(entries, TopEntry{ID: id, Label: label(id), Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type MaintenanceSummary struct {
	TotalSpots         int `json:"totalBoxes"`
	FreeSpots          int `json:"boxesLivres"`
	OccupiedSpots      int `json:"boxesOcupados"`
	MaintenanceSpots   int `json:"boxesManutencao"`
	ParkedVehicles     int `json:"veiculosEstacionados"`
	RegisteredVehicles int `json:"veiculosCadastrados"`
}

// Maintenance counts spots by status across the whole registry.
func (a *Aggregator) Maintenance() MaintenanceSummary {
	var sum MaintenanceSummary
	for _, s := range a.reg.Spots() {
		sum.TotalSpots++
		switch s.Status {
		case parking.StatusFree:
			sum.FreeSpots++
		case parking.StatusOccupied:
			sum.OccupiedSpots++
			sum.ParkedVehicles++
		case parking.StatusMaintenance:
			sum.MaintenanceSpots++
		}
	}
	sum.RegisteredVehicles = a.reg.VehicleCount()
	return sum
}

type VehiclePosition struct {
	Plate     string     `json:"placa"`
	Model     string     `json:"modelo,omitempty"`
	SpotID    int64      `json:"boxId"`
	SpotName  string     `json:"boxNome"`
	YardID    int64      `json:"patioId"`
	EnteredAt *time.Time `json:"dataEntrada"`
}

// Positions lists every currently parked vehicle and its spot, ordered by
// spot id. Feeds the live positions stream.
func (a *Aggregator) Positions() []VehiclePosition {
	var out []VehiclePosition
	for _, s := range a.reg.Spots() {
		if !s.Occupied() {
			continue
		}
		pos := VehiclePosition{
			SpotID:    s.ID,
			SpotName:  s.Name,
			YardID:    s.YardID,
			EnteredAt: s.EnteredAt,
		}
		if v, ok := a.reg.VehicleByID(s.VehicleID); ok {
			pos.Plate = v.Plate
			pos.Model = v.Model
		}
		out = append(out, pos)
	}
	return out
}
