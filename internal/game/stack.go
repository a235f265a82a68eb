package game

import "sync"

// continuation consumes the eventual answer to a question.
type continuation func(answer string)

// pendingStack tracks a player's outstanding questions. Answers resolve
// in LIFO order: the most recently issued question gets the next answer.
// All mutation happens under the stack's own lock so push, pop and clear
// never interleave for the same player. Continuations are invoked after
// the lock is released, so a continuation may issue or clear further
// questions on the same player.
type pendingStack struct {
	mu    sync.Mutex
	conts []continuation
}

// issue pushes cont and returns immediately. The caller is responsible
// for sending the corresponding question over the player's channel.
func (ps *pendingStack) issue(cont continuation) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.conts = append(ps.conts, cont)
}

// resolve pops the most recent continuation and invokes it with answer.
// It reports whether a continuation was pending; an answer with nothing
// pending is the caller's to log and ignore.
func (ps *pendingStack) resolve(answer string) bool {
	ps.mu.Lock()
	n := len(ps.conts)
	if n == 0 {
		ps.mu.Unlock()
		return false
	}
	cont := ps.conts[n-1]
	ps.conts = ps.conts[:n-1]
	ps.mu.Unlock()

	cont(answer)
	return true
}

// clear drops all pending continuations without invoking them.
func (ps *pendingStack) clear() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.conts = nil
}

func (ps *pendingStack) len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.conts)
}
