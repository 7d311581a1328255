package fleettracking

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/fleet-tracking/config"
	"github.com/theoremus-urban-solutions/fleet-tracking/eta"
	"github.com/theoremus-urban-solutions/fleet-tracking/feed"
	"github.com/theoremus-urban-solutions/fleet-tracking/history"
	"github.com/theoremus-urban-solutions/fleet-tracking/registry"
)

// MilestoneSource resolves the milestone plan for an active order. Callers
// that have no order system can leave the server's source nil; ETA requests
// then answer 404.
type MilestoneSource interface {
	Milestones(ctx context.Context, orderID string) ([]eta.Milestone, error)
}

// Server ties the vehicle registry, the history source and the feed poller
// behind one HTTP surface.
type Server struct {
	registry   *registry.Registry
	history    history.Source
	milestones MilestoneSource
	etaEngine  eta.Engine
	feed       *feed.GTFSRT
	router     *mux.Router
	httpServer *http.Server
}

// NewServer wires the HTTP routes. history and milestones may be nil; the
// corresponding endpoints then report the resource as unavailable.
func NewServer(reg *registry.Registry, hist history.Source, ms MilestoneSource) *Server {
	s := &Server{
		registry:   reg,
		history:    hist,
		milestones: ms,
		etaEngine: eta.Engine{
			FallbackSpeedKMH: config.Config.ETA.FallbackSpeedKMH,
			DelayTolerance:   time.Duration(config.Config.ETA.DelayToleranceMinutes) * time.Minute,
		},
	}
	if s.etaEngine.FallbackSpeedKMH == 0 {
		s.etaEngine = eta.NewEngine()
	}
	if url := config.Config.Feed.VehiclePositionsURL; url != "" {
		s.feed = feed.NewGTFSRT(url,
			time.Duration(config.Config.Feed.ReadIntervalMS)*time.Millisecond,
			time.Duration(config.Config.Feed.TimeoutMS)*time.Millisecond)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/telemetry", s.handleIngest).Methods(http.MethodPost)
	r.HandleFunc("/api/vehicles", s.handleVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}", s.handleVehicle).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}/eta", s.handleETA).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}/route", s.handleRoute).Methods(http.MethodGet)
	r.HandleFunc("/api/retransmissions", s.handleRetransmissions).Methods(http.MethodGet)
	s.router = r
	return s
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run starts the HTTP server, the registry sweeper and, when configured, the
// GTFS-RT poller, and blocks until ctx is cancelled or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", config.Config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("server listening on %s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := s.registry.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})
	if s.feed != nil {
		g.Go(func() error {
			if err := s.feed.Run(ctx, s.registry.OnSample); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
