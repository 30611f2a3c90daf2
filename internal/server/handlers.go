package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"yard-service/internal/clock"
	"yard-service/internal/parking"
	"yard-service/internal/report"
	"yard-service/internal/stream"
)

func getServiceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return "yard-service"
}

type Handler struct {
	engine *parking.InstrumentedEngine
	reg    *parking.Registry
	agg    *report.Aggregator
	pub    *stream.Publisher
	clk    clock.Clock
}

func NewHandler(engine *parking.InstrumentedEngine, agg *report.Aggregator, pub *stream.Publisher, clk clock.Clock) *Handler {
	return &Handler{
		engine: engine,
		reg:    engine.Registry(),
		agg:    agg,
		pub:    pub,
		clk:    clk,
	}
}

// statusFor maps domain errors to HTTP status codes so the transport stays a
// thin adapter.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrYardNotFound),
		errors.Is(err, parking.ErrSpotNotFound),
		errors.Is(err, parking.ErrVehicleNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrInvalidPlate),
		errors.Is(err, report.ErrInvalidArgument),
		errors.Is(err, report.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrAlreadyParked),
		errors.Is(err, parking.ErrNotParked),
		errors.Is(err, parking.ErrSpotUnavailable),
		errors.Is(err, parking.ErrNoSpotAvailable),
		errors.Is(err, parking.ErrDuplicateID),
		errors.Is(err, parking.ErrDuplicatePlate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:  "healthy",
			Service: getServiceName(),
		},
		Meta: extractMeta(r.Context()),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := r.URL.Query().Get("placa")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Query parameter 'placa' is required")
		return
	}

	var opts parking.ParkOptions
	opts.Note = r.URL.Query().Get("observacoes")
	if raw := r.URL.Query().Get("boxId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid boxId")
			return
		}
		opts.SpotID = id
	}
	if raw := r.URL.Query().Get("patioId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid patioId")
			return
		}
		opts.YardID = id
	}

	spot, err := h.engine.Park(ctx, plate, opts)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	normalized, _ := parking.NormalizePlate(plate)
	WriteSuccess(ctx, w, "Vehicle parked successfully", spotResponse(spot, normalized))
}

func (h *Handler) ReleaseVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := r.URL.Query().Get("placa")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Query parameter 'placa' is required")
		return
	}

	if _, err := h.engine.Release(ctx, plate); err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActiveParkings(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Active parkings retrieved", h.agg.Positions())
}

func (h *Handler) CreateYard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateYardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID <= 0 || req.Name == "" {
		WriteError(ctx, w, http.StatusBadRequest, "idPatio and nomePatio are required")
		return
	}

	yard, err := h.reg.AddYard(req.ID, req.Name)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Yard created successfully", yard)
}

func (h *Handler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID <= 0 || req.YardID <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "idBox and patioId are required")
		return
	}

	spot, err := h.reg.AddSpot(req.ID, req.YardID, req.Name)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Spot created successfully", spotResponse(spot, ""))
}

func (h *Handler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vehicle, err := h.reg.RegisterVehicle(req.Plate, req.Model)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle registered successfully", vehicle)
}

func (h *Handler) SetSpotMaintenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("boxId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid boxId")
		return
	}

	status := parking.StatusMaintenance
	if r.URL.Query().Get("liberar") == "true" {
		status = parking.StatusFree
	}

	spot, err := h.reg.SetStatus(id, status)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Spot status updated", spotResponse(spot, ""))
}

func (h *Handler) OccupancySummary(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Occupancy summary retrieved", h.agg.Occupancy())
}

func (h *Handler) OccupancyByYard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("patioId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid patioId")
		return
	}

	yo, err := h.agg.YardOccupancy(id)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Yard occupancy retrieved", yo)
}

func (h *Handler) DailyMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := h.parseRange(r)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.agg.DailyMovement(start, end)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Daily movement retrieved", rep)
}

func (h *Handler) TopVehicles(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, h.agg.TopVehicles)
}

func (h *Handler) TopSpots(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, h.agg.TopSpots)
}

func (h *Handler) top(w http.ResponseWriter, r *http.Request, fn func(int, time.Time, time.Time) ([]report.TopEntry, error)) {
	ctx := r.Context()

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	start, end, err := h.parseRange(r)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := fn(limit, start, end)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Ranking retrieved", entries)
}

func (h *Handler) MaintenanceSummary(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Maintenance summary retrieved", h.agg.Maintenance())
}

// parseRange reads inicio/fim date parameters (2006-01-02), defaulting to the
// last 30 days.
func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.clk.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if raw := r.URL.Query().Get("inicio"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'inicio' date, expected YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("fim"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'fim' date, expected YYYY-MM-DD")
		}
		end = parsed
	}
	return start, end, nil
}
