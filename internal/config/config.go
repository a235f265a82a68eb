package config

import (
	"fmt"
	"time"
)

const (
	// DefaultAskTimeout is how long an ask waits for answers when the
	// caller does not supply a timeout.
	DefaultAskTimeout = 30 * time.Second
	// DefaultSettleDelay is the pause after a forced-submission signal
	// during which forced answers may still arrive.
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultTextGrace and DefaultDrawGrace allow answers slightly past
	// the deadline for free-text and drawing questions; option picks
	// get no grace.
	DefaultTextGrace    = 2 * time.Second
	DefaultDrawGrace    = 2 * time.Second
	DefaultOptionsGrace = 0
	// DefaultSweepInterval is how often the registry checks for idle
	// rooms; DefaultIdleRoomGrace is how long a room may stay idle
	// before it is unloaded.
	DefaultSweepInterval = time.Second
	DefaultIdleRoomGrace = 15 * time.Minute
	// DefaultMaxPlayers caps room size when the creator does not say.
	DefaultMaxPlayers = 100
)

type Config struct {
	ServerAddr     string
	AllowedOrigins []string

	AskTimeout   time.Duration
	SettleDelay  time.Duration
	TextGrace    time.Duration
	OptionsGrace time.Duration
	DrawGrace    time.Duration

	SweepInterval time.Duration
	IdleRoomGrace time.Duration

	MaxPlayers int
}

func NewConfig(serverAddr string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}

	return &Config{
		ServerAddr:     serverAddr,
		AllowedOrigins: allowedOrigins,
		AskTimeout:     DefaultAskTimeout,
		SettleDelay:    DefaultSettleDelay,
		TextGrace:      DefaultTextGrace,
		OptionsGrace:   DefaultOptionsGrace,
		DrawGrace:      DefaultDrawGrace,
		SweepInterval:  DefaultSweepInterval,
		IdleRoomGrace:  DefaultIdleRoomGrace,
		MaxPlayers:     DefaultMaxPlayers,
	}, nil
}
