package game

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/npezzotti/go-askroom/internal/config"
	"github.com/npezzotti/go-askroom/internal/stats"
)

// GameServer owns the connection table and drives the join flow and the
// ask protocol against rooms. There is one per process; every component
// that needs it gets it injected.
type GameServer struct {
	log      *log.Logger
	cfg      *config.Config
	stats    stats.StatsProvider
	registry *Registry

	connsLock sync.Mutex
	conns     map[string]*Player
}

func NewGameServer(logger *log.Logger, cfg *config.Config, registry *Registry, statsProvider stats.StatsProvider) (*GameServer, error) {
	return &GameServer{
		log:      logger,
		cfg:      cfg,
		stats:    statsProvider,
		registry: registry,
		conns:    make(map[string]*Player),
	}, nil
}

// Connect creates a fresh identity for a new connection, tells it its
// player id and starts the join conversation: a "Room Code" question
// whose answer leads to a "Name" question whose answer attempts the
// room join.
func (gs *GameServer) Connect(ch Channel) *Player {
	p := NewPlayer(gs.log)
	p.AttachChannel(ch)

	gs.connsLock.Lock()
	gs.conns[ch.ID()] = p
	gs.connsLock.Unlock()
	gs.stats.Incr(stats.ActiveConnections)

	gs.log.Printf("connection %q established as player %s", ch.ID(), p.ID())

	p.Send(PlayerIdMsg(p.ID()))
	gs.askRoomCode(p)
	return p
}

func (gs *GameServer) askRoomCode(p *Player) {
	p.Issue(func(code string) {
		roomId := strings.ToLower(strings.TrimSpace(code))
		room, err := gs.registry.Get(roomId)
		if err != nil {
			p.Send(ShowTextMsg(fmt.Sprintf("Room %s not found.", roomId)))
			return
		}
		gs.askName(room, p)
	})
	p.Send(TextboxMsg("Room Code"))
}

func (gs *GameServer) askName(room *Room, p *Player) {
	p.Issue(func(name string) {
		p.SetName(strings.ToUpper(strings.TrimSpace(name)))

		res := room.Join(p)
		switch res.Status {
		case JoinAccepted:
		case JoinAbsorbed:
			// the surviving roster identity owns this connection now
			gs.rebind(res.Player)
		default:
			gs.drop(p)
		}
	})
	p.Send(TextboxMsg("Name"))
}

// rebind points the connection-table entry for the survivor's new
// connection at the survivor, superseding the identity that was created
// for the connection.
func (gs *GameServer) rebind(survivor *Player) {
	connId := survivor.ConnectionId()
	if connId == "" {
		return
	}

	gs.connsLock.Lock()
	gs.conns[connId] = survivor
	gs.connsLock.Unlock()
}

// drop removes a rejected identity from the connection table and
// detaches its channel.
func (gs *GameServer) drop(p *Player) {
	connId := p.ConnectionId()
	p.DetachChannel()

	if connId == "" {
		return
	}

	gs.connsLock.Lock()
	_, ok := gs.conns[connId]
	if ok {
		delete(gs.conns, connId)
	}
	gs.connsLock.Unlock()

	if ok {
		gs.stats.Decr(stats.ActiveConnections)
	}
}

// Disconnect marks the identity behind connId unreachable and removes
// it from the connection table. Its room roster entry survives so the
// player can reconnect under the same name.
func (gs *GameServer) Disconnect(connId string) {
	gs.connsLock.Lock()
	p, ok := gs.conns[connId]
	if ok {
		delete(gs.conns, connId)
	}
	gs.connsLock.Unlock()

	if !ok {
		return
	}

	p.Send(ShowTextMsg("You have been disconnected from the room. Please refresh the page to reconnect."))
	p.DetachChannel()
	gs.stats.Decr(stats.ActiveConnections)

	gs.log.Printf("player %s disconnected", p.ID())
}

// SubmitAnswer routes an incoming answer to the player's most recent
// pending question. Answers for unknown players or with nothing pending
// are logged and ignored.
func (gs *GameServer) SubmitAnswer(playerId, value string) {
	p := gs.playerByID(playerId)
	if p == nil {
		gs.log.Printf("answer from unknown player %q", playerId)
		return
	}

	if !p.Resolve(value) {
		gs.log.Printf("no pending question for player %s", p.ID())
		gs.stats.Incr(stats.UnsolicitedAnswers)
	}
}

func (gs *GameServer) playerByID(playerId string) *Player {
	gs.connsLock.Lock()
	defer gs.connsLock.Unlock()

	for _, p := range gs.conns {
		if p.ID() == playerId {
			return p
		}
	}
	return nil
}

func (gs *GameServer) CreateRoom(maxPlayers int) *Room {
	if maxPlayers <= 0 {
		maxPlayers = gs.cfg.MaxPlayers
	}
	return gs.registry.Create(maxPlayers)
}

func (gs *GameServer) Room(roomId string) (*Room, error) {
	return gs.registry.Get(roomId)
}

// ShowText displays text to every player in the room. Display messages
// land in the replay slot so a reconnecting player sees the current
// content.
func (gs *GameServer) ShowText(room *Room, text string) {
	for _, p := range room.Players() {
		gs.display(p, ShowTextMsg(text))
	}
}

func (gs *GameServer) ShowTextPlayer(room *Room, playerId, text string) error {
	p, err := room.Player(playerId)
	if err != nil {
		return err
	}
	gs.display(p, ShowTextMsg(text))
	return nil
}

func (gs *GameServer) ShowImage(room *Room, url string) {
	for _, p := range room.Players() {
		gs.display(p, SetImageMsg(url))
	}
}

func (gs *GameServer) ShowImagePlayer(room *Room, playerId, url string) error {
	p, err := room.Player(playerId)
	if err != nil {
		return err
	}
	gs.display(p, SetImageMsg(url))
	return nil
}

func (gs *GameServer) display(p *Player, msg *ServerMessage) {
	p.SetLastPrompt(msg)
	p.Send(msg)
}

// AskText asks every player in the room a free-text question and
// returns the answers collected before the deadline, keyed by player
// id.
func (gs *GameServer) AskText(room *Room, message string, timeout time.Duration) map[string]string {
	a := gs.newAsk(KindText, TextboxMsg(message), timeout)
	return a.broadcast(room.Players())
}

func (gs *GameServer) AskTextPlayer(room *Room, playerId, message string, timeout time.Duration) (string, bool, error) {
	p, err := room.Player(playerId)
	if err != nil {
		return "", false, err
	}

	a := gs.newAsk(KindText, TextboxMsg(message), timeout)
	answer, ok := a.single(p)
	return answer, ok, nil
}

// AskOptions asks every player to pick one of options. images is a
// parallel list of optional image URLs. An empty options list fails
// validation before anything is dispatched.
func (gs *GameServer) AskOptions(room *Room, message string, options, images []string, timeout time.Duration) (map[string]string, error) {
	if len(options) == 0 {
		return nil, ErrNoOptions
	}

	a := gs.newAsk(KindOptions, OptionsMsg(message, options, images), timeout)
	return a.broadcast(room.Players()), nil
}

func (gs *GameServer) AskOptionsPlayer(room *Room, playerId, message string, options, images []string, timeout time.Duration) (string, bool, error) {
	if len(options) == 0 {
		return "", false, ErrNoOptions
	}

	p, err := room.Player(playerId)
	if err != nil {
		return "", false, err
	}

	a := gs.newAsk(KindOptions, OptionsMsg(message, options, images), timeout)
	answer, ok := a.single(p)
	return answer, ok, nil
}

func (gs *GameServer) AskDrawing(room *Room, prompt string, timeout time.Duration) map[string]string {
	a := gs.newAsk(KindDraw, DrawboxMsg(prompt), timeout)
	return a.broadcast(room.Players())
}

func (gs *GameServer) AskDrawingPlayer(room *Room, playerId, prompt string, timeout time.Duration) (string, bool, error) {
	p, err := room.Player(playerId)
	if err != nil {
		return "", false, err
	}

	a := gs.newAsk(KindDraw, DrawboxMsg(prompt), timeout)
	answer, ok := a.single(p)
	return answer, ok, nil
}

func (gs *GameServer) newAsk(kind QuestionKind, prompt *ServerMessage, timeout time.Duration) *ask {
	if timeout <= 0 {
		timeout = gs.cfg.AskTimeout
	}

	a := &ask{
		prompt:      prompt,
		deadline:    time.Now().Add(timeout),
		settleDelay: gs.cfg.SettleDelay,
		log:         gs.log,
		stats:       gs.stats,
		responses:   make(map[string]string),
		arrived:     make(chan struct{}, 1),
	}

	switch kind {
	case KindText:
		a.grace = gs.cfg.TextGrace
		a.forceSubmit = true
		a.ackFor = func(answer string) string { return "Your answer: " + answer }
	case KindOptions:
		a.grace = gs.cfg.OptionsGrace
		a.forceSubmit = false
		a.ackFor = func(answer string) string { return "Your answer: " + answer }
	case KindDraw:
		a.grace = gs.cfg.DrawGrace
		a.forceSubmit = true
		a.ackFor = func(string) string { return "Drawing received." }
	}

	return a
}
