package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-askroom/internal/config"
	"github.com/npezzotti/go-askroom/internal/game"
)

type AskRoomApp struct {
	log            *log.Logger
	gs             *game.GameServer
	mux            *http.Server
	allowedOrigins []string
	maxPlayers     int
}

func NewAskRoomApp(mux *http.ServeMux, logger *log.Logger, gs *game.GameServer, cfg *config.Config) *AskRoomApp {
	s := &AskRoomApp{
		log:            logger,
		gs:             gs,
		allowedOrigins: cfg.AllowedOrigins,
		maxPlayers:     cfg.MaxPlayers,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/rooms", s.createRoom)
	mux.HandleFunc("GET /api/rooms/{roomId}", s.roomStatus)
	mux.HandleFunc("POST /api/rooms/{roomId}/lock", s.setLocked)
	mux.HandleFunc("POST /api/rooms/{roomId}/broadcast", s.broadcastText)
	mux.HandleFunc("POST /api/rooms/{roomId}/broadcast/{playerId}", s.sayText)
	mux.HandleFunc("POST /api/rooms/{roomId}/image", s.broadcastImage)
	mux.HandleFunc("POST /api/rooms/{roomId}/image/{playerId}", s.sayImage)
	mux.HandleFunc("POST /api/rooms/{roomId}/ask", s.askText)
	mux.HandleFunc("POST /api/rooms/{roomId}/ask/{playerId}", s.askTextPlayer)
	mux.HandleFunc("POST /api/rooms/{roomId}/options", s.askOptions)
	mux.HandleFunc("POST /api/rooms/{roomId}/options/{playerId}", s.askOptionsPlayer)
	mux.HandleFunc("POST /api/rooms/{roomId}/draw", s.askDrawing)
	mux.HandleFunc("POST /api/rooms/{roomId}/draw/{playerId}", s.askDrawingPlayer)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "X-Api-Key"}),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *AskRoomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *AskRoomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
