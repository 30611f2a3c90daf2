package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"yard-service/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type SpotResponse struct {
	ID        int64      `json:"idBox"`
	YardID    int64      `json:"patioId"`
	Name      string     `json:"nome"`
	Status    string     `json:"status"`
	Plate     string     `json:"placa,omitempty"`
	EnteredAt *time.Time `json:"dataEntrada,omitempty"`
	ExitedAt  *time.Time `json:"dataSaida,omitempty"`
	Note      string     `json:"observacoes,omitempty"`
}

type CreateYardRequest struct {
	ID   int64  `json:"idPatio"`
	Name string `json:"nomePatio"`
}

type CreateSpotRequest struct {
	ID     int64  `json:"idBox"`
	YardID int64  `json:"patioId"`
	Name   string `json:"nome"`
}

type RegisterVehicleRequest struct {
	Plate string `json:"placa"`
	Model string `json:"modelo,omitempty"`
}

func spotResponse(s parking.Spot, plate string) SpotResponse {
	return SpotResponse{
		ID:        s.ID,
		YardID:    s.YardID,
		Name:      s.Name,
		Status:    string(s.Status),
		Plate:     plate,
		EnteredAt: s.EnteredAt,
		ExitedAt:  s.ExitedAt,
		Note:      s.Note,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
