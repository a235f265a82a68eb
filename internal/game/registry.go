package game

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-askroom/internal/config"
	"github.com/npezzotti/go-askroom/internal/stats"
)

// Room ids are short enough to type from a projected screen: four
// symbols drawn from digits then lowercase letters.
const (
	roomIdAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	roomIdLength   = 4
)

// Registry owns the process-wide set of rooms. A background sweep
// accumulates idle time per room and unloads rooms that have been idle
// past the configured grace period.
type Registry struct {
	log           *log.Logger
	stats         stats.StatsProvider
	sweepInterval time.Duration
	idleGrace     time.Duration
	// newRoomId is the injected id source, replaceable in tests.
	newRoomId func() string

	mu        sync.Mutex
	rooms     map[string]*Room
	lastSweep time.Time

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(logger *log.Logger, statsProvider stats.StatsProvider, cfg *config.Config) *Registry {
	return &Registry{
		log:           logger,
		stats:         statsProvider,
		sweepInterval: cfg.SweepInterval,
		idleGrace:     cfg.IdleRoomGrace,
		newRoomId:     randomRoomId,
		rooms:         make(map[string]*Room),
		lastSweep:     time.Now(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Create registers a new room with a unique id and a fresh secret
// credential.
func (rg *Registry) Create(maxPlayers int) *Room {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	var id string
	for {
		id = rg.newRoomId()
		if _, exists := rg.rooms[id]; !exists {
			break
		}
	}

	room := &Room{
		id:         id,
		secret:     uuid.NewString(),
		maxPlayers: maxPlayers,
		log:        rg.log,
	}
	rg.rooms[id] = room
	rg.stats.Incr(stats.ActiveRooms)

	rg.log.Printf("created room %q with capacity %d", id, maxPlayers)
	return room
}

func (rg *Registry) Get(roomId string) (*Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[roomId]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomId, ErrRoomNotFound)
	}
	return room, nil
}

func (rg *Registry) RoomCount() int {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return len(rg.rooms)
}

// Run drives the idle sweep on a fixed tick until Shutdown is called.
func (rg *Registry) Run() {
	ticker := time.NewTicker(rg.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rg.sweep(time.Now())
		case <-rg.stop:
			close(rg.done)
			return
		}
	}
}

func (rg *Registry) Shutdown() {
	close(rg.stop)
	<-rg.done
}

// sweep adds the elapsed time since the previous sweep to every idle
// room's accumulator, unloading rooms idle past grace, and resets the
// accumulator of rooms with at least one reachable player. Rooms
// created or removed mid-pass are picked up on the next tick.
func (rg *Registry) sweep(now time.Time) {
	rg.mu.Lock()
	elapsed := now.Sub(rg.lastSweep)
	rg.lastSweep = now

	snapshot := make(map[string]*Room, len(rg.rooms))
	for id, room := range rg.rooms {
		snapshot[id] = room
	}
	rg.mu.Unlock()

	for id, room := range snapshot {
		if !room.IsIdle() {
			room.resetIdle()
			continue
		}

		if room.addIdle(elapsed, rg.idleGrace) {
			rg.remove(id)
		}
	}
}

func (rg *Registry) remove(roomId string) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if _, ok := rg.rooms[roomId]; !ok {
		return
	}

	delete(rg.rooms, roomId)
	rg.stats.Decr(stats.ActiveRooms)
	rg.log.Printf("unloaded idle room %q", roomId)
}

func randomRoomId() string {
	b := make([]byte, roomIdLength)
	for i := range b {
		b[i] = roomIdAlphabet[rand.IntN(len(roomIdAlphabet))]
	}
	return string(b)
}
