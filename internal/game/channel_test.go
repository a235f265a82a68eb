package game

import "sync"

// fakeChannel records queued messages for assertions.
type fakeChannel struct {
	id string

	mu   sync.Mutex
	msgs []*ServerMessage
}

func newFakeChannel(id string) *fakeChannel {
	return &fakeChannel{id: id}
}

func (f *fakeChannel) ID() string { return f.id }

func (f *fakeChannel) Queue(msg *ServerMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeChannel) messages() []*ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ServerMessage(nil), f.msgs...)
}

// find returns the first recorded message with the given event, or nil.
func (f *fakeChannel) find(event string) *ServerMessage {
	for _, msg := range f.messages() {
		if msg.Event == event {
			return msg
		}
	}
	return nil
}

// last returns the most recent recorded message, or nil.
func (f *fakeChannel) last() *ServerMessage {
	msgs := f.messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (f *fakeChannel) hasEvent(event string) bool {
	return f.find(event) != nil
}

// hasText reports whether a show_text message with exactly text was
// recorded.
func (f *fakeChannel) hasText(text string) bool {
	for _, msg := range f.messages() {
		if msg.Event == EventShowText && msg.Text == text {
			return true
		}
	}
	return false
}
