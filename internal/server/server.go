package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yard-service/internal/stream"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port string, handler *Handler) *Server {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(TracingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/estacionamento", func(r chi.Router) {
		r.Post("/estacionar", handler.ParkVehicle)
		r.Post("/liberar", handler.ReleaseVehicle)
		r.Get("/ativos", handler.ActiveParkings)
	})

	r.Post("/patios", handler.CreateYard)
	r.Post("/boxes", handler.CreateSpot)
	r.Post("/boxes/manutencao", handler.SetSpotMaintenance)
	r.Post("/veiculos", handler.RegisterVehicle)

	r.Route("/relatorios", func(r chi.Router) {
		r.Get("/resumo", handler.OccupancySummary)
		r.Get("/resumo-por-patio", handler.OccupancyByYard)
		r.Get("/kpis", handler.DailyMovement)
		r.Get("/top-veiculos", handler.TopVehicles)
		r.Get("/top-boxes", handler.TopSpots)
		r.Get("/manutencao", handler.MaintenanceSummary)
	})

	r.Get("/stream/boxes", handler.StreamSSE(stream.KindOccupancy))
	r.Get("/stream/movimentacao", handler.StreamSSE(stream.KindMovement))
	r.Get("/ws/posicoes", handler.StreamWebSocket)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoints hold the connection open
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func (s *Server) Start() error {
	log.Printf("Starting HTTP server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}

// Router exposes the handler mux for tests.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}
