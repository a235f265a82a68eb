package game

import (
	"time"
)

// Event names pushed to a player's connection. The client-side
// presentation switches on these to decide what to render.
const (
	EventPlayerId    = "player_id"
	EventShowText    = "show_text"
	EventShowTextbox = "show_textbox"
	EventShowOptions = "show_options"
	EventShowDrawbox = "show_drawbox"
	EventSetImage    = "set_image"
	EventForceSubmit = "force_submit"
)

type ServerMessage struct {
	Event     string    `json:"event"`
	PlayerId  string    `json:"player_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Options   []string  `json:"options,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	Answer *Answer `json:"answer,omitempty"`
}

type Answer struct {
	PlayerId string `json:"player_id"`
	Value    string `json:"value"`
}

func PlayerIdMsg(id string) *ServerMessage {
	return &ServerMessage{
		Event:     EventPlayerId,
		PlayerId:  id,
		Timestamp: Now(),
	}
}

func ShowTextMsg(text string) *ServerMessage {
	return &ServerMessage{
		Event:     EventShowText,
		Text:      text,
		Timestamp: Now(),
	}
}

// TextboxMsg prompts the player for a free-text answer.
func TextboxMsg(prompt string) *ServerMessage {
	return &ServerMessage{
		Event:     EventShowTextbox,
		Text:      prompt,
		Timestamp: Now(),
	}
}

// OptionsMsg prompts the player to pick one of options. images is a
// parallel list of optional image URLs, one per option; entries may be
// empty.
func OptionsMsg(message string, options, images []string) *ServerMessage {
	return &ServerMessage{
		Event:     EventShowOptions,
		Text:      message,
		Options:   options,
		Images:    images,
		Timestamp: Now(),
	}
}

// DrawboxMsg prompts the player to submit a drawing.
func DrawboxMsg(prompt string) *ServerMessage {
	return &ServerMessage{
		Event:     EventShowDrawbox,
		Text:      prompt,
		Timestamp: Now(),
	}
}

func SetImageMsg(url string) *ServerMessage {
	return &ServerMessage{
		Event:     EventSetImage,
		Text:      url,
		Timestamp: Now(),
	}
}

// ForceSubmitMsg instructs the presentation to submit whatever partial
// answer it currently holds.
func ForceSubmitMsg() *ServerMessage {
	return &ServerMessage{
		Event:     EventForceSubmit,
		Timestamp: Now(),
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
