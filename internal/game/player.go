package game

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Channel is the live delivery path to a player's current connection.
// Implementations must never block the caller; delivery is best effort.
type Channel interface {
	// ID returns the connection identifier the channel is bound to.
	ID() string
	// Queue enqueues a message for delivery, reporting whether it was
	// accepted. A false return means the message was dropped.
	Queue(msg *ServerMessage) bool
}

// Player is a participant's persistent logical identity. Its id is
// assigned once and survives reconnects; the channel is replaced
// wholesale when the same identity reconnects from a new connection.
type Player struct {
	id  string
	log *log.Logger

	mu         sync.Mutex
	name       string
	ch         Channel
	lastPrompt *ServerMessage

	pending pendingStack
}

func NewPlayer(logger *log.Logger) *Player {
	return &Player{
		id:  uuid.NewString(),
		log: logger,
	}
}

func (p *Player) ID() string { return p.id }

func (p *Player) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *Player) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// AttachChannel installs a new delivery channel, replacing any prior
// one. The player's id and pending questions are untouched.
func (p *Player) AttachChannel(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch = ch
}

// DetachChannel marks the player unreachable. Subsequent sends become
// no-ops rather than errors.
func (p *Player) DetachChannel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch = nil
}

func (p *Player) IsReachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch != nil
}

// ConnectionId returns the id of the current connection, or "" when
// unreachable.
func (p *Player) ConnectionId() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ""
	}
	return p.ch.ID()
}

// Send delivers msg over the current channel, best effort. Unreachable
// players and dropped messages are not errors; the protocol layer never
// assumes delivery succeeded.
func (p *Player) Send(msg *ServerMessage) {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil {
		return
	}
	if !ch.Queue(msg) {
		p.log.Printf("dropped %q message to player %s", msg.Event, p.id)
	}
}

// Issue registers cont to receive the next answer from this player.
func (p *Player) Issue(cont continuation) {
	p.pending.issue(cont)
}

// Resolve routes an incoming answer to the most recently issued pending
// question. It reports whether anything was pending.
func (p *Player) Resolve(answer string) bool {
	return p.pending.resolve(answer)
}

// ClearPending drops all pending questions without answering them.
func (p *Player) ClearPending() {
	p.pending.clear()
}

// SetLastPrompt records the most recent prompt or display message so it
// can be re-sent verbatim if the player reconnects mid-question.
func (p *Player) SetLastPrompt(msg *ServerMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPrompt = msg
}

func (p *Player) ClearLastPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPrompt = nil
}

// Replay re-sends the last issued prompt, if any. Called after a
// reconnect so a player who dropped mid-question is re-prompted.
func (p *Player) Replay() {
	p.mu.Lock()
	msg := p.lastPrompt
	p.mu.Unlock()

	if msg != nil {
		p.Send(msg)
	}
}

// Absorb takes over other's channel, installing it on p, and leaves
// other permanently unreachable. This is the reconnect path: the stale
// roster identity survives and adopts the fresh connection, and the
// identity created for that connection is discarded. The caller owns
// rebinding the connection table to p.
func (p *Player) Absorb(other *Player) {
	ch := other.takeChannel()

	p.mu.Lock()
	p.ch = ch
	p.mu.Unlock()
}

func (p *Player) takeChannel() Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.ch
	p.ch = nil
	return ch
}
