package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wordpit/wordpit/server/configs"
	internalactor "github.com/wordpit/wordpit/server/internal/actor"
	"github.com/wordpit/wordpit/server/internal/actor/messages"
	"github.com/wordpit/wordpit/server/internal/game"
	"github.com/wordpit/wordpit/server/internal/logging"
	"github.com/wordpit/wordpit/server/internal/network"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := configs.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info("starting wordpit server", "addr", cfg.Server.Addr(), "ws_path", cfg.Server.WSPath)

	system := actor.NewActorSystem(actor.WithLoggerFactory(logging.ActorSystemLogger(logger)))

	sessionManager, err := system.Root.SpawnNamed(internalactor.PropsForSessionManager(), "session-manager")
	if err != nil {
		logger.Error("spawn session manager", "err", err)
		os.Exit(1)
	}
	gameCfg := game.Config{TurnSeconds: cfg.Game.TurnSeconds, TargetScore: cfg.Game.TargetScore}
	roomManager, err := system.Root.SpawnNamed(internalactor.PropsForRoomManager(gameCfg, cfg.Room.DefaultMaxPlayers), "room-manager")
	if err != nil {
		logger.Error("spawn room manager", "err", err)
		os.Exit(1)
	}

	ws := network.NewServer(system, sessionManager, roomManager, cfg.Server, cfg.Session)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	router.GET(cfg.Server.WSPath, ws.HandleWS)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		// Any answer proves the session manager is serving its mailbox.
		fut := system.Root.RequestFuture(sessionManager, &messages.GetUser{}, 2*time.Second)
		if _, err := fut.Result(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "addr", cfg.Server.Addr(), "err", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if err := ws.Shutdown(ctx); err != nil {
		logger.Warn("pump drain", "err", err)
	}

	// Room manager first: stopping it stops its child rooms, which
	// still message sessions and the session manager on the way down.
	if err := system.Root.StopFuture(roomManager).Wait(); err != nil {
		logger.Warn("stop room manager", "err", err)
	}
	if err := system.Root.StopFuture(sessionManager).Wait(); err != nil {
		logger.Warn("stop session manager", "err", err)
	}
	system.Shutdown()
	logger.Info("server stopped")
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}
