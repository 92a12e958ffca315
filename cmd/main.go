package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/trome-service/config"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/security"
	"github.com/cwrk-planet/trome-service/internal/service"
	"github.com/cwrk-planet/trome-service/internal/storage"
	grpcx "github.com/cwrk-planet/trome-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/trome-service/internal/transport/http"
	httpmw "github.com/cwrk-planet/trome-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/trome-service/internal/transport/ws"
	"github.com/cwrk-planet/trome-service/pkg/logger"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting trome-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	repos, err := storage.Open(ctx, cfg.Storage, cfg.Logging.Service)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer repos.Close()

	if cfg.Storage.AutoMigrate {
		if err := repos.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	// --- auth ---
	var (
		httpVerifier httpmw.SubjectVerifier
		grpcVerifier grpcx.SubjectVerifier
	)
	if cfg.Auth.PublicKeyPath != "" {
		pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
		if err != nil {
			log.Fatalf("auth public key: %v", err)
		}
		v := security.NewTokenVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.ClockSkewOr(30*time.Second))
		httpVerifier, grpcVerifier = v, v
	} else {
		slog.Warn("auth.publicKeyPath is empty, trusting X-User-ID header")
	}

	// --- services ---
	engineOpts := membership.Options{
		ProfileTimeout:             cfg.Membership.ProfileTimeoutOr(3 * time.Second),
		KeepRecordedModerator:      cfg.Membership.KeepRecordedModerator,
		StripModeratorFromSpeakers: *cfg.Membership.StripModeratorFromSpeakers,
	}

	hub := ws.NewHub()
	roomSvc := service.NewRoomService(repos.Rooms, repos.Users)
	memberSvc := service.NewMemberService(repos.Rooms, repos.Users, repos.Profiles, engineOpts,
		service.WithEventPublisher(hub),
		service.WithHeartbeatWindow(cfg.Membership.HeartbeatWindowOr(time.Minute)),
	)
	profileSvc := service.NewProfileService(repos.Profiles, repos.Users, time.Now)

	// --- WS Server ---
	wsServer := ws.NewServer(hub, memberSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, profileSvc)
	router := httpx.NewRouter(httpx.RouterDeps{
		Handler:        handler,
		Members:        memberSvc,
		WS:             wsServer,
		Verifier:       httpVerifier,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeoutOr(15 * time.Second),
	})
	httpSrv := httpx.NewServer(httpx.ServerConfig{Addr: cfg.HTTP.Addr}, router)

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(cfg.GRPC.CallTimeoutOr(10*time.Second))),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	health := grpcx.Register(grpcServer, grpcx.NewServer(roomSvc, memberSvc, grpcVerifier))

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return memberSvc.Run(gctx)
	})

	g.Go(func() error {
		return httpSrv.Run(gctx)
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		health.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", slog.Any("err", err))
	}
	slog.Info("stopped")
}
