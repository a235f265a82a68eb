package game

import (
	"crypto/subtle"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// JoinStatus classifies the outcome of Room.Join. Rejections are not
// hard errors: the joining player is told why over its channel and the
// caller decides what to do with the discarded identity.
type JoinStatus int

const (
	JoinAccepted JoinStatus = iota
	// JoinAbsorbed means the joining identity collided with a
	// disconnected roster member and was discarded in its favor; the
	// surviving identity now owns the new connection.
	JoinAbsorbed
	JoinRejectedEmptyName
	JoinRejectedDuplicate
	JoinRejectedFull
	JoinRejectedLocked
)

type JoinResult struct {
	Status JoinStatus
	// Player is the effective participant: the joining identity on
	// JoinAccepted, the surviving roster identity on JoinAbsorbed, nil
	// otherwise.
	Player *Player
}

// Room is a bounded, named group of players sharing one question/answer
// session. Rooms are independent: no operation ever locks two rooms.
type Room struct {
	id         string
	secret     string
	maxPlayers int
	log        *log.Logger

	mu          sync.Mutex
	locked      bool
	players     []*Player
	reconnected []*Player
	idle        time.Duration
}

// Authorize reports whether key matches the room's secret credential.
func (r *Room) Authorize(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(r.secret)) == 1
}

func (r *Room) ID() string     { return r.id }
func (r *Room) Secret() string { return r.secret }

func (r *Room) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

func (r *Room) SetLocked(locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = locked
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players returns an ordered snapshot of the roster for fan-out.
func (r *Room) Players() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Player(nil), r.players...)
}

// Player looks up a roster member by player id.
func (r *Room) Player(playerId string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID() == playerId {
			return p, nil
		}
	}
	return nil, fmt.Errorf("player %q in room %q: %w", playerId, r.id, ErrPlayerNotFound)
}

// Join applies the room's admission rules to p. A name collision with a
// reachable member is a duplicate; a collision with an unreachable
// member is a reconnect, resolved by absorption: the stale roster
// identity takes over p's connection, keeps its original player id, is
// re-sent that id plus the prompt it was last shown, and the reconnect
// is recorded for the next status query.
func (r *Room) Join(p *Player) JoinResult {
	if strings.TrimSpace(p.Name()) == "" {
		p.Send(ShowTextMsg("Player name cannot be nothing."))
		return JoinResult{Status: JoinRejectedEmptyName}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.playerByName(p.Name()); existing != nil {
		if existing.IsReachable() {
			p.Send(ShowTextMsg(fmt.Sprintf("A user by that name is already in room %s.", r.id)))
			return JoinResult{Status: JoinRejectedDuplicate}
		}

		existing.Absorb(p)
		existing.Send(PlayerIdMsg(existing.ID()))
		existing.Send(ShowTextMsg(fmt.Sprintf("Welcome back %s, you joined room %s.", existing.Name(), r.id)))
		existing.Send(SetImageMsg(""))
		r.reconnected = append(r.reconnected, existing)
		existing.Replay()

		r.log.Printf("player %s reconnected to room %q", existing.ID(), r.id)
		return JoinResult{Status: JoinAbsorbed, Player: existing}
	}

	if len(r.players) >= r.maxPlayers {
		p.Send(ShowTextMsg("Room is full."))
		return JoinResult{Status: JoinRejectedFull}
	}

	if r.locked {
		p.Send(ShowTextMsg("Room is locked."))
		return JoinResult{Status: JoinRejectedLocked}
	}

	r.players = append(r.players, p)
	p.Send(ShowTextMsg(fmt.Sprintf("Welcome %s, you joined room %s.", p.Name(), r.id)))
	p.Send(SetImageMsg(""))

	r.log.Printf("player %s joined room %q as %q", p.ID(), r.id, p.Name())
	return JoinResult{Status: JoinAccepted, Player: p}
}

// playerByName returns the first roster member with the given name,
// case-insensitive, regardless of reachability. Caller holds r.mu.
func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// IsIdle reports whether the room is empty or every member is
// unreachable.
func (r *Room) IsIdle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsReachable() {
			return false
		}
	}
	return true
}

// DrainReconnects returns the players who reconnected since the last
// call and clears the log.
func (r *Room) DrainReconnects() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.reconnected
	r.reconnected = nil
	return drained
}

// addIdle accumulates idle time, reporting whether the room has now
// been idle past grace.
func (r *Room) addIdle(elapsed, grace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle += elapsed
	return r.idle > grace
}

func (r *Room) resetIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle = 0
}
