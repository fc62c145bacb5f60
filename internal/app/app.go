package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evgrid/internal/clients"
	"evgrid/internal/config"
	httpserver "evgrid/internal/http"
	"evgrid/internal/http/handlers"
	"evgrid/internal/http/middleware"
	"evgrid/internal/metrics"
	"evgrid/internal/redisstore"
	"evgrid/internal/repository"
	"evgrid/internal/scheduler"
	"evgrid/internal/service"
	"evgrid/internal/ws"
	libdb "evgrid/libs/db"
	libredis "evgrid/libs/redis"
)

const hubPingInterval = 30 * time.Second

// App wires the charging backend dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	sweeper     *scheduler.ExpirationSweeper
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	slotRepo := repository.NewSlotRepository(sqlDB)
	bookingRepo := repository.NewBookingRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)

	hub := ws.NewHub(hubPingInterval, logger)
	activeSessions := redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())
	paymentsClient := clients.NewPaymentsClient(cfg.Payments.BaseURL, logger)

	weights := service.ScoreWeights{
		Traffic: cfg.Scoring.TrafficWeight,
		Grid:    cfg.Scoring.GridWeight,
		Parking: cfg.Scoring.ParkingWeight,
		Access:  cfg.Scoring.AccessWeight,
	}

	bookingService := service.NewBookingService(
		bookingRepo, slotRepo, stationRepo, hub, paymentsClient,
		cfg.GracePeriod(), cfg.Booking.FallbackRateKwh, logger)
	chargingService := service.NewChargingService(
		bookingRepo, sessionRepo, slotRepo, activeSessions, hub,
		cfg.Charging.FlatRateKwh, logger)
	stationService := service.NewStationService(stationRepo, slotRepo, bookingRepo, logger)
	slotsService := service.NewSlotsService(slotRepo, stationRepo, hub, logger)
	discoveryService := service.NewDiscoveryService(stationRepo, slotRepo, weights)

	sweeper := scheduler.NewExpirationSweeper(bookingService, cfg.SweepPeriod(), logger)

	bookingsHandler := handlers.NewBookingsHandler(bookingService, logger)
	chargingHandler := handlers.NewChargingHandler(chargingService, logger)
	stationsHandler := handlers.NewStationsHandler(stationService, logger)
	slotsHandler := handlers.NewSlotsHandler(slotsService, logger)
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService, logger)
	wsHandler := handlers.NewWSHandler(hub, logger)

	routes := httpserver.Routes{
		Health:         handlers.HandleHealth,
		Metrics:        metrics.Handler(),
		StationCreate:  stationsHandler.HandleCreate,
		StationList:    stationsHandler.HandleList,
		StationGet:     stationsHandler.HandleGet,
		StationUpdate:  stationsHandler.HandleUpdate,
		StationDelete:  stationsHandler.HandleDelete,
		StationSlots:   slotsHandler.HandleStationSlots,
		AvailableSlots: slotsHandler.HandleAvailableSlots,
		SlotCreate:     slotsHandler.HandleCreate,
		SlotStatus:     slotsHandler.HandleUpdateStatus,
		BookingCreate:  bookingsHandler.HandleCreate,
		BookingsMine:   bookingsHandler.HandleListMine,
		BookingCancel:  bookingsHandler.HandleCancel,
		ChargingStart:  chargingHandler.HandleStart,
		ChargingStop:   chargingHandler.HandleStop,
		Viewport:       discoveryHandler.HandleViewport,
		Nearby:         discoveryHandler.HandleNearby,
		ViewportNearby: discoveryHandler.HandleViewportNearby,
		StationDetail:  discoveryHandler.HandleStationDetail,
		WebSocket:      wsHandler.HandleConnect,
	}

	router := httpserver.NewRouter(routes, middleware.Auth(cfg.Auth.JWTSecret))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		sweeper:     sweeper,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server, the websocket hub and the expiration sweeper, and
// blocks until the context ends.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	go a.sweeper.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
