package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/go-askroom/internal/api"
	"github.com/npezzotti/go-askroom/internal/config"
	"github.com/npezzotti/go-askroom/internal/game"
	"github.com/npezzotti/go-askroom/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	askTimeout     time.Duration
	idleRoomGrace  time.Duration
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.DurationVar(&askTimeout, "ask-timeout", config.DefaultAskTimeout, "default deadline for ask operations")
	flag.DurationVar(&idleRoomGrace, "idle-room-grace", config.DefaultIdleRoomGrace, "how long an idle room is kept before it is unloaded")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[askroom] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}
	cfg.AskTimeout = askTimeout
	cfg.IdleRoomGrace = idleRoomGrace

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	registry := game.NewRegistry(logger, statsUpdater, cfg)

	gameServer, err := game.NewGameServer(logger, cfg, registry, statsUpdater)
	if err != nil {
		logger.Fatal("new game server:", err)
	}

	srv := api.NewAskRoomApp(mux, logger, gameServer, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go registry.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down room registry...")
	registry.Shutdown()

	logger.Println("shutdown complete")
}
