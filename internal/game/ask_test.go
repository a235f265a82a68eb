package game

import (
	"testing"
	"time"

	"github.com/npezzotti/go-askroom/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskText_AllAnswerBeforeDeadline(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	players := make([]*Player, 3)
	channels := make([]*fakeChannel, 3)
	names := []string{"alice", "bob", "carol"}
	conns := []string{"conn-1", "conn-2", "conn-3"}
	for i := range players {
		players[i], channels[i] = joinPlayer(t, gs, room, names[i], conns[i])
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(players[0].ID(), "red")
		gs.SubmitAnswer(players[1].ID(), "green")
		gs.SubmitAnswer(players[2].ID(), "blue")
	}()

	start := time.Now()
	responses := gs.AskText(room, "Favorite color?", time.Second)

	assert.Less(t, time.Since(start), time.Second, "expected the call to return before the deadline once all answered")
	require.Len(t, responses, 3, "expected one answer per player")
	assert.Equal(t, "red", responses[players[0].ID()])
	assert.Equal(t, "green", responses[players[1].ID()])
	assert.Equal(t, "blue", responses[players[2].ID()])

	prompt := channels[1].find(EventShowTextbox)
	require.NotNil(t, prompt, "expected every player to be prompted")
	assert.Equal(t, "Favorite color?", prompt.Text)
	assert.True(t, channels[0].hasText("Your answer: red"), "expected an acknowledgement of the recorded answer")
}

func TestAskText_PartialAnswers(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p1, _ := joinPlayer(t, gs, room, "alice", "conn-1")
	p2, _ := joinPlayer(t, gs, room, "bob", "conn-2")
	p3, ch3 := joinPlayer(t, gs, room, "carol", "conn-3")

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(p1.ID(), "yes")
		gs.SubmitAnswer(p2.ID(), "no")
	}()

	cfg := gs.cfg
	start := time.Now()
	responses := gs.AskText(room, "Ready?", cfg.AskTimeout)
	elapsed := time.Since(start)

	require.Len(t, responses, 2, "expected exactly the answers received")
	assert.Contains(t, responses, p1.ID())
	assert.Contains(t, responses, p2.ID())
	assert.NotContains(t, responses, p3.ID(), "expected the non-responder to be omitted, not an error")

	assert.True(t, ch3.hasEvent(EventForceSubmit), "expected the non-responder to be told to force-submit")
	assert.Less(t, elapsed, cfg.AskTimeout+cfg.SettleDelay+100*time.Millisecond,
		"expected the call to return within the deadline plus one settle step")
}

func TestAskText_ForcedAnswerWithinGrace(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p, _ := joinPlayer(t, gs, room, "alice", "conn-1")

	// answer lands after the deadline but within the grace window,
	// during the settle step
	go func() {
		time.Sleep(gs.cfg.AskTimeout + 5*time.Millisecond)
		gs.SubmitAnswer(p.ID(), "just in time")
	}()

	responses := gs.AskText(room, "Last call?", gs.cfg.AskTimeout)
	assert.Equal(t, "just in time", responses[p.ID()], "expected a forced answer within grace to be accepted")
}

func TestAsk_LateAnswerRejected(t *testing.T) {
	gs, su := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p, ch := joinPlayer(t, gs, room, "alice", "conn-1")

	a := gs.newAsk(KindText, TextboxMsg("Too slow?"), 10*time.Millisecond)
	a.dispatch(p)

	time.Sleep(10*time.Millisecond + gs.cfg.TextGrace + 20*time.Millisecond)
	gs.SubmitAnswer(p.ID(), "way too late")

	assert.Empty(t, a.results(), "expected the late answer to be discarded")
	assert.True(t, ch.hasText("Error - Was out of time."), "expected the sender to be told the answer was late")
	assert.Equal(t, 1, su.Count(stats.LateAnswers))
	assert.Zero(t, p.pending.len(), "expected the pending stack to be cleared on a late answer")
}

func TestAskOptions(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p1, ch1 := joinPlayer(t, gs, room, "alice", "conn-1")
	_, ch2 := joinPlayer(t, gs, room, "bob", "conn-2")

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(p1.ID(), "cats")
	}()

	responses, err := gs.AskOptions(room, "Cats or dogs?", []string{"cats", "dogs"}, []string{"", ""}, gs.cfg.AskTimeout)
	require.NoError(t, err)

	require.Len(t, responses, 1, "expected only the received answer")
	assert.Equal(t, "cats", responses[p1.ID()])

	prompt := ch1.find(EventShowOptions)
	require.NotNil(t, prompt, "expected an options prompt")
	assert.Equal(t, []string{"cats", "dogs"}, prompt.Options)

	// options asks never force-submit; stragglers are told they ran out
	assert.False(t, ch2.hasEvent(EventForceSubmit), "expected no forced submission for options")
	assert.True(t, ch2.hasText("Out of time."), "expected the non-responder to be marked timed out")
	assert.False(t, ch1.hasText("Out of time."), "expected responders not to be marked timed out")
}

func TestAskOptions_EmptyOptions(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	_, ch := joinPlayer(t, gs, room, "alice", "conn-1")

	_, err := gs.AskOptions(room, "Pick one", nil, nil, gs.cfg.AskTimeout)
	assert.ErrorIs(t, err, ErrNoOptions, "expected validation to fail")
	assert.False(t, ch.hasEvent(EventShowOptions), "expected no prompt to be dispatched")

	_, _, err = gs.AskOptionsPlayer(room, "anyone", "Pick one", nil, nil, gs.cfg.AskTimeout)
	assert.ErrorIs(t, err, ErrNoOptions, "expected single-target validation before target lookup")
}

func TestAskTextPlayer(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p1, _ := joinPlayer(t, gs, room, "alice", "conn-1")
	_, ch2 := joinPlayer(t, gs, room, "bob", "conn-2")

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(p1.ID(), "43")
	}()

	answer, ok, err := gs.AskTextPlayer(room, p1.ID(), "Guess a number", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expected an answer")
	assert.Equal(t, "43", answer)

	assert.False(t, ch2.hasEvent(EventShowTextbox), "expected only the target to be prompted")
}

func TestAskTextPlayer_Timeout(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p, ch := joinPlayer(t, gs, room, "alice", "conn-1")

	_, ok, err := gs.AskTextPlayer(room, p.ID(), "Anyone there?", 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "expected no answer")
	assert.True(t, ch.hasEvent(EventForceSubmit), "expected a forced-submission signal on timeout")
}

func TestAskTextPlayer_UnknownPlayer(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	_, _, err := gs.AskTextPlayer(room, "nobody", "Hello?", time.Second)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestAskOptionsPlayer_Timeout(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p, ch := joinPlayer(t, gs, room, "alice", "conn-1")

	_, ok, err := gs.AskOptionsPlayer(room, p.ID(), "Pick", []string{"a", "b"}, nil, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, ch.hasText("Out of time."), "expected an out-of-time notice instead of a forced submission")
	assert.False(t, ch.hasEvent(EventForceSubmit))
}

func TestAskDrawing(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p1, ch1 := joinPlayer(t, gs, room, "alice", "conn-1")
	p2, _ := joinPlayer(t, gs, room, "bob", "conn-2")

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(p1.ID(), "data:image/png;base64,AAAA")
		gs.SubmitAnswer(p2.ID(), "data:image/png;base64,BBBB")
	}()

	responses := gs.AskDrawing(room, "Draw a cat", time.Second)
	require.Len(t, responses, 2)
	assert.Equal(t, "data:image/png;base64,AAAA", responses[p1.ID()])

	prompt := ch1.find(EventShowDrawbox)
	require.NotNil(t, prompt, "expected a drawing prompt")
	assert.Equal(t, "Draw a cat", prompt.Text)
	assert.True(t, ch1.hasText("Drawing received."), "expected the drawing acknowledgement")
}

func TestAsk_ReconnectMidQuestion(t *testing.T) {
	gs, _ := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p1, _ := joinPlayer(t, gs, room, "alice", "conn-1")

	results := make(chan map[string]string, 1)
	go func() {
		results <- gs.AskText(room, "Still with us?", 500*time.Millisecond)
	}()

	// wait for dispatch, then drop and reconnect under the same name
	time.Sleep(20 * time.Millisecond)
	gs.Disconnect("conn-1")
	_, ch2 := joinPlayer(t, gs, room, "alice", "conn-2")

	prompt := ch2.find(EventShowTextbox)
	require.NotNil(t, prompt, "expected the in-flight question to be replayed on reconnect")
	assert.Equal(t, "Still with us?", prompt.Text)

	gs.SubmitAnswer(p1.ID(), "back again")

	select {
	case responses := <-results:
		assert.Equal(t, "back again", responses[p1.ID()], "expected the answer to resolve the original question")
	case <-time.After(time.Second):
		t.Fatal("timeout: broadcast ask did not return")
	}
}

func TestAsk_CountsQuestionsAndAnswers(t *testing.T) {
	gs, su := newTestGameServer(t)
	room := gs.CreateRoom(5)

	p, _ := joinPlayer(t, gs, room, "alice", "conn-1")

	go func() {
		time.Sleep(10 * time.Millisecond)
		gs.SubmitAnswer(p.ID(), "hi")
	}()

	gs.AskText(room, "Hello?", time.Second)
	assert.Equal(t, 1, su.Count(stats.QuestionsAsked))
	assert.Equal(t, 1, su.Count(stats.AnswersReceived))
}
