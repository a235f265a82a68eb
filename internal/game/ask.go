package game

import (
	"log"
	"sync"
	"time"

	"github.com/npezzotti/go-askroom/internal/stats"
)

// QuestionKind selects the prompt shape and the resolution policy of an
// ask: free text and drawings tolerate answers slightly past the
// deadline and get a forced-submission round, option picks get neither.
type QuestionKind int

const (
	KindText QuestionKind = iota
	KindOptions
	KindDraw
)

// ask is one invocation of the ask-and-await protocol: send a question
// to each target, collect answers until the count is reached or the
// deadline passes, then settle stragglers per kind. An ask is built per
// call and discarded when it returns.
type ask struct {
	prompt      *ServerMessage
	deadline    time.Time
	grace       time.Duration
	forceSubmit bool
	settleDelay time.Duration
	ackFor      func(answer string) string
	log         *log.Logger
	stats       stats.StatsProvider

	mu        sync.Mutex
	responses map[string]string
	// arrived wakes the collecting loop on each recorded answer.
	arrived chan struct{}
}

// broadcast runs the full protocol against players and returns the
// collected answers keyed by player id. Players who never answered are
// simply absent; a minority of non-responders never fails the call.
func (a *ask) broadcast(players []*Player) map[string]string {
	for _, p := range players {
		a.dispatch(p)
	}

	a.await(len(players))

	for _, p := range players {
		p.ClearLastPrompt()
	}

	if a.forceSubmit {
		for _, p := range players {
			p.Send(ForceSubmitMsg())
		}
		// forced answers resolve through the still-pending
		// continuations during this window
		time.Sleep(a.settleDelay)
	} else {
		for _, p := range players {
			if _, ok := a.result(p.ID()); !ok {
				p.Send(ShowTextMsg("Out of time."))
			}
		}
	}

	return a.results()
}

// single runs the protocol against one player. The second return is
// false when no answer arrived in time.
func (a *ask) single(p *Player) (string, bool) {
	a.dispatch(p)
	a.await(1)

	p.ClearLastPrompt()

	answer, ok := a.result(p.ID())
	if !ok {
		if a.forceSubmit {
			p.Send(ForceSubmitMsg())
			time.Sleep(a.settleDelay)
			answer, ok = a.result(p.ID())
		} else {
			p.Send(ShowTextMsg("Out of time."))
		}
	}

	return answer, ok
}

// dispatch issues the question to one player: a continuation is pushed
// onto the player's pending stack and the prompt goes out over its
// channel. The prompt is also stored as the player's replay slot so a
// reconnect mid-question re-prompts.
func (a *ask) dispatch(p *Player) {
	p.SetLastPrompt(a.prompt)
	p.Issue(func(answer string) {
		// The deadline check here races the collecting loop's; the
		// grace window keeps an answer in flight at the boundary from
		// being discarded while the loop still rejects stragglers.
		if time.Now().After(a.deadline.Add(a.grace)) {
			p.ClearLastPrompt()
			p.ClearPending()
			p.Send(ShowTextMsg("Error - Was out of time."))
			a.stats.Incr(stats.LateAnswers)
			a.log.Printf("discarded late answer from player %s", p.ID())
			return
		}

		a.record(p.ID(), answer)
		a.stats.Incr(stats.AnswersReceived)
		p.Send(ShowTextMsg(a.ackFor(answer)))
	})
	p.Send(a.prompt)
	a.stats.Incr(stats.QuestionsAsked)
}

// await suspends until want answers are recorded or the deadline
// passes, waking on each answer arrival.
func (a *ask) await(want int) {
	timer := time.NewTimer(time.Until(a.deadline))
	defer timer.Stop()

	for a.count() < want {
		select {
		case <-a.arrived:
		case <-timer.C:
			return
		}
	}
}

// record stores an answer keyed by player id. Each continuation fires
// at most once and is popped before firing, so a key is never written
// twice by the same question.
func (a *ask) record(playerId, answer string) {
	a.mu.Lock()
	a.responses[playerId] = answer
	a.mu.Unlock()

	select {
	case a.arrived <- struct{}{}:
	default:
	}
}

func (a *ask) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.responses)
}

func (a *ask) result(playerId string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	answer, ok := a.responses[playerId]
	return answer, ok
}

func (a *ask) results() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]string, len(a.responses))
	for id, answer := range a.responses {
		out[id] = answer
	}
	return out
}
