package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-askroom/internal/game"
	"github.com/npezzotti/go-askroom/internal/types"
	"github.com/teris-io/shortid"
)

const apiKeyHeader = "X-Api-Key"

type OptionsRequest struct {
	Message string   `json:"message"`
	Options []string `json:"options"`
	Images  []string `json:"images"`
}

func (s *AskRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// authorizeRoom resolves the room named in the request path and checks
// the caller's credential against the room's secret.
func (s *AskRoomApp) authorizeRoom(r *http.Request) (*game.Room, *ApiError) {
	room, err := s.gs.Room(r.PathValue("roomId"))
	if err != nil {
		if errors.Is(err, game.ErrRoomNotFound) {
			return nil, NewNotFoundError()
		}
		return nil, NewInternalServerError(err)
	}

	key := r.Header.Get(apiKeyHeader)
	if key == "" || !room.Authorize(key) {
		return nil, NewUnauthorizedError()
	}

	return room, nil
}

// askTimeout reads the optional timeout_seconds query parameter. Zero
// means "use the configured default".
func askTimeout(r *http.Request) time.Duration {
	raw := r.URL.Query().Get("timeout_seconds")
	if raw == "" {
		return 0
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// decodeString reads a JSON-encoded string request body.
func decodeString(r *http.Request) (string, error) {
	var v string
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func (s *AskRoomApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *AskRoomApp) createRoom(w http.ResponseWriter, r *http.Request) {
	maxPlayers := s.maxPlayers
	if raw := r.URL.Query().Get("max_players"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errResp := NewBadRequestError("max_players must be a positive integer")
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		maxPlayers = n
	}

	room := s.gs.CreateRoom(maxPlayers)
	s.writeJson(w, http.StatusOK, types.RoomCredentials{
		Id:        room.ID(),
		SecretKey: room.Secret(),
	})
}

func (s *AskRoomApp) roomStatus(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	players := room.Players()
	roster := make([]types.Player, len(players))
	for i, p := range players {
		roster[i] = types.Player{
			Id:        p.ID(),
			Name:      p.Name(),
			Connected: p.IsReachable(),
		}
	}

	reconnected := []types.Player{}
	for _, p := range room.DrainReconnects() {
		reconnected = append(reconnected, types.Player{
			Id:        p.ID(),
			Name:      p.Name(),
			Connected: p.IsReachable(),
		})
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Id:                 room.ID(),
		PlayerCount:        len(players),
		Players:            roster,
		Locked:             room.Locked(),
		ReconnectedPlayers: reconnected,
	})
}

func (s *AskRoomApp) setLocked(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var locked bool
	if err := json.NewDecoder(r.Body).Decode(&locked); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room.SetLocked(locked)
	s.writeJson(w, http.StatusOK, nil)
}

func (s *AskRoomApp) broadcastText(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	message, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.gs.ShowText(room, message)
	s.writeJson(w, http.StatusOK, "Message sent")
}

func (s *AskRoomApp) sayText(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	message, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.gs.ShowTextPlayer(room, r.PathValue("playerId"), message); err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, "Message sent")
}

func (s *AskRoomApp) broadcastImage(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	url, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.gs.ShowImage(room, url)
	s.writeJson(w, http.StatusOK, "Message sent")
}

func (s *AskRoomApp) sayImage(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	url, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.gs.ShowImagePlayer(room, r.PathValue("playerId"), url); err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, "Message sent")
}

func (s *AskRoomApp) askText(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	message, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	responses := s.gs.AskText(room, message, askTimeout(r))
	s.writeJson(w, http.StatusOK, responses)
}

func (s *AskRoomApp) askTextPlayer(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	message, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	answer, ok, err := s.gs.AskTextPlayer(room, r.PathValue("playerId"), message, askTimeout(r))
	if err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var resp *string
	if ok {
		resp = &answer
	}
	s.writeJson(w, http.StatusOK, resp)
}

func (s *AskRoomApp) askOptions(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	responses, err := s.gs.AskOptions(room, req.Message, req.Options, req.Images, askTimeout(r))
	if err != nil {
		errResp := NewBadRequestError(err.Error())
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, responses)
}

func (s *AskRoomApp) askOptionsPlayer(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	answer, ok, err := s.gs.AskOptionsPlayer(room, r.PathValue("playerId"), req.Message, req.Options, req.Images, askTimeout(r))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, game.ErrNoOptions) {
			errResp = NewBadRequestError(err.Error())
		} else {
			errResp = NewNotFoundError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var resp *string
	if ok {
		resp = &answer
	}
	s.writeJson(w, http.StatusOK, resp)
}

func (s *AskRoomApp) askDrawing(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prompt, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	responses := s.gs.AskDrawing(room, prompt, askTimeout(r))
	s.writeJson(w, http.StatusOK, responses)
}

func (s *AskRoomApp) askDrawingPlayer(w http.ResponseWriter, r *http.Request) {
	room, errResp := s.authorizeRoom(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prompt, err := decodeString(r)
	if err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	answer, ok, err := s.gs.AskDrawingPlayer(room, r.PathValue("playerId"), prompt, askTimeout(r))
	if err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var resp *string
	if ok {
		resp = &answer
	}
	s.writeJson(w, http.StatusOK, resp)
}

func (s *AskRoomApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	connId, err := shortid.Generate()
	if err != nil {
		s.log.Println("error generating connection id:", err)
		conn.Close()
		return
	}

	client := game.NewClient(connId, conn, s.gs, s.log)
	s.gs.Connect(client)
	go client.Write()
	go client.Read()
}
