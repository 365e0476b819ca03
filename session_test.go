package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *client {
	return &client{
		send:   make(chan any, 64),
		connID: uuid.NewString(),
	}
}

func drainMessages(c *client) []any {
	var msgs []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func joinResult(t *testing.T, c *client) JoinResultMessage {
	t.Helper()

	for _, msg := range drainMessages(c) {
		if result, ok := msg.(JoinResultMessage); ok {
			return result
		}
	}
	t.Fatal("no join_result received")
	return JoinResultMessage{}
}

func joinRoom(t *testing.T, r *room, name string) *client {
	t.Helper()

	c := newTestClient()
	require.True(t, r.handleRegister(c))
	r.handleJoin(c, name)

	result := joinResult(t, c)
	require.True(t, result.Success, "join failed: %s", result.Error)

	return c
}

func roomPhase(r *room) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.phase
}

func waitForPhase(t *testing.T, r *room, want Phase) {
	t.Helper()

	require.Eventually(t, func() bool {
		return roomPhase(r) == want
	}, time.Second, 2*time.Millisecond, "room never reached %s", want)
}

func TestFirstConnectionBecomesHost(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	host := newTestClient()
	require.True(t, r.handleRegister(host))

	msgs := drainMessages(host)
	require.NotEmpty(t, msgs)

	info, ok := msgs[0].(SessionInfoMessage)
	require.True(t, ok, "first message should be session_info")
	assert.True(t, info.IsHost)
	assert.Equal(t, r.code, info.RoomCode)

	second := newTestClient()
	require.True(t, r.handleRegister(second))
	info = drainMessages(second)[0].(SessionInfoMessage)
	assert.False(t, info.IsHost)
}

func TestJoinRejectsDuplicateConnectedName(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	joinRoom(t, r, "ana")

	dup := newTestClient()
	require.True(t, r.handleRegister(dup))
	r.handleJoin(dup, "Ana")

	result := joinResult(t, dup)
	assert.False(t, result.Success)
	assert.Equal(t, "name already in use", result.Error)
}

func TestJoinRejectedOutsideLobby(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	joinRoom(t, r, "ana")
	r.handleStart()

	late := newTestClient()
	require.True(t, r.handleRegister(late))
	r.handleJoin(late, "bia")

	result := joinResult(t, late)
	assert.False(t, result.Success)
	assert.Equal(t, "game already in progress", result.Error)

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestStartFlow(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")
	joinRoom(t, r, "bia")

	r.handleStart()

	r.mu.Lock()
	assert.Equal(t, phaseQuestion, r.phase)
	assert.Equal(t, 1, r.round)
	require.NotNil(t, r.question)
	assert.True(t, r.used[r.question.ID], "drawn question is marked used")
	r.mu.Unlock()

	waitForPhase(t, r, phaseAnswerInput)

	var sawInput bool
	for _, msg := range drainMessages(ana) {
		state, ok := msg.(GameStateMessage)
		if ok && state.State == "ANSWER_INPUT" {
			sawInput = true
			assert.Equal(t, r.settings.TimerDuration, state.Timer)
		}
	}
	assert.True(t, sawInput, "ANSWER_INPUT broadcast carries the timer duration")

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestStartIgnoredOutsideLobby(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	joinRoom(t, r, "ana")
	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleStart()
	assert.Equal(t, phaseAnswerInput, roomPhase(r), "start mid-game is a no-op")

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestSecondSubmissionIgnored(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")
	joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleSubmit(ana.connID, "batata")
	r.handleSubmit(ana.connID, "arroz")

	r.mu.Lock()
	player := r.players[ana.connID]
	assert.Equal(t, "batata", player.answer, "second submission does not overwrite")
	assert.True(t, player.IsAnswered)
	assert.Len(t, r.submissions, 1)
	r.mu.Unlock()

	var acks int
	for _, msg := range drainMessages(ana) {
		if simple, ok := msg.(SimpleMessage); ok && simple.Type == "answer_received" {
			acks++
		}
	}
	assert.Equal(t, 1, acks, "only the first submission is acknowledged")

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestAllAnsweredTriggersReveal(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")
	bia := joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleSubmit(ana.connID, "batata")
	r.handleSubmit(bia.connID, "Batata")

	waitForPhase(t, r, phaseReveal)

	r.mu.Lock()
	assert.Equal(t, 2, r.players[ana.connID].Score)
	assert.Equal(t, 2, r.players[bia.connID].Score)
	r.mu.Unlock()

	var reveal *GameStateMessage
	for _, msg := range drainMessages(ana) {
		state, ok := msg.(GameStateMessage)
		if ok && state.State == "REVEAL" {
			reveal = &state
		}
	}
	require.NotNil(t, reveal)
	require.Len(t, reveal.Groups, 1)
	assert.Equal(t, 2, reveal.Groups[0].Count)
	assert.Equal(t, "batata", reveal.Groups[0].Text)

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestCalculateResultsIdempotent(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")
	bia := joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleSubmit(ana.connID, "praia")
	r.handleSubmit(bia.connID, "praia")

	// Run the round-timer path by hand, then again: the phase guard makes
	// the loser of the race a no-op.
	r.mu.Lock()
	r.calculateResultsLocked()
	score := r.players[ana.connID].Score
	r.calculateResultsLocked()
	assert.Equal(t, score, r.players[ana.connID].Score, "second trigger must not double-score")
	r.mu.Unlock()

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestWinConditionEvaluation(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()
	joinRoom(t, r, "ana")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings.WinCondition = winRounds
	r.settings.WinTarget = 5
	r.round = 4
	assert.False(t, r.winConditionMetLocked(), "round 4 of 5 does not end the game")
	r.round = 5
	assert.True(t, r.winConditionMetLocked(), "the game ends exactly at the threshold")

	r.settings.WinCondition = winScore
	r.settings.WinTarget = 10
	for _, player := range r.players {
		player.Score = 9
	}
	assert.False(t, r.winConditionMetLocked())
	for _, player := range r.players {
		player.Score = 10
	}
	assert.True(t, r.winConditionMetLocked())

	r.settings.WinCondition = winTime
	r.settings.WinTarget = 1
	r.startedAt = time.Now()
	assert.False(t, r.winConditionMetLocked())
	r.startedAt = time.Now().Add(-2 * time.Minute)
	assert.True(t, r.winConditionMetLocked())
}

func TestGameEndsAtScoreboardAndResets(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")
	bia := joinRoom(t, r, "bia")

	r.handleSettings(&SettingsPatch{WinTarget: intPtr(1)})
	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleSubmit(ana.connID, "praia")
	r.handleSubmit(bia.connID, "cinema")

	waitForPhase(t, r, phaseScoreboard)

	r.mu.Lock()
	assert.False(t, r.players[ana.connID].HasPinkCow, "two outliers means nobody takes the badge")
	assert.False(t, r.players[bia.connID].HasPinkCow)
	r.mu.Unlock()

	r.handlePlayAgain()

	r.mu.Lock()
	assert.Equal(t, phaseLobby, r.phase)
	assert.Equal(t, 0, r.round)
	assert.Nil(t, r.question)
	assert.Empty(t, r.used)
	for _, player := range r.players {
		assert.Zero(t, player.Score)
		assert.False(t, player.HasPinkCow)
		assert.False(t, player.IsAnswered)
	}
	r.mu.Unlock()

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestHostDisconnectDestroysRoom(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	host := newTestClient()
	require.True(t, r.handleRegister(host))

	ana := joinRoom(t, r, "ana")
	joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	if r.handleDisconnect(host) {
		reg.destroy(r.code)
	}

	assert.Nil(t, reg.lookup(r.code))
	assert.Contains(t, drainMessages(ana), SimpleMessage{Type: "room_destroyed"})

	// Any timer still in flight must find the room destroyed and do
	// nothing.
	phase := roomPhase(r)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, phase, roomPhase(r))
}

func TestLobbyDisconnectRemovesPlayer(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	host := newTestClient()
	require.True(t, r.handleRegister(host))

	ana := joinRoom(t, r, "ana")
	require.False(t, r.handleDisconnect(ana))

	r.mu.Lock()
	assert.Empty(t, r.players)
	r.mu.Unlock()
}

func TestReconnectionPreservesPlayerState(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	host := newTestClient()
	require.True(t, r.handleRegister(host))

	joinRoom(t, r, "ana")
	bia := joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.mu.Lock()
	r.players[bia.connID].Score = 7
	r.players[bia.connID].HasPinkCow = true
	r.mu.Unlock()

	require.False(t, r.handleDisconnect(bia))

	r.mu.Lock()
	assert.False(t, r.players[bia.connID].Connected, "mid-game players are retained on disconnect")
	r.mu.Unlock()

	returning := newTestClient()
	require.True(t, r.handleRegister(returning))
	r.handleJoin(returning, "BIA")

	result := joinResult(t, returning)
	require.True(t, result.Success)
	assert.Equal(t, returning.connID, result.PlayerID)

	r.mu.Lock()
	assert.Len(t, r.players, 2, "no duplicate roster entry")
	assert.Nil(t, r.players[bia.connID])
	player := r.players[returning.connID]
	require.NotNil(t, player)
	assert.Equal(t, "bia", player.Name)
	assert.Equal(t, 7, player.Score)
	assert.True(t, player.HasPinkCow)
	assert.True(t, player.Connected)
	r.mu.Unlock()

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestDisconnectCompletesRound(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	host := newTestClient()
	require.True(t, r.handleRegister(host))

	ana := joinRoom(t, r, "ana")
	bia := joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.handleSubmit(ana.connID, "praia")
	require.False(t, r.handleDisconnect(bia))

	waitForPhase(t, r, phaseReveal)

	t.Cleanup(func() { reg.destroy(r.code) })
}

func TestSettingsMerge(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	ana := joinRoom(t, r, "ana")

	r.handleSettings(&SettingsPatch{
		TimerDuration: intPtr(45),
		WinCondition:  strPtr(winScore),
	})

	r.mu.Lock()
	assert.Equal(t, 45, r.settings.TimerDuration)
	assert.Equal(t, winScore, r.settings.WinCondition)
	assert.Equal(t, defaultSettings().WinTarget, r.settings.WinTarget, "unset fields are untouched")
	assert.Equal(t, defaultSettings().Decks, r.settings.Decks)
	r.mu.Unlock()

	var updated *SettingsMessage
	for _, msg := range drainMessages(ana) {
		if settings, ok := msg.(SettingsMessage); ok {
			updated = &settings
		}
	}
	require.NotNil(t, updated, "merged settings are broadcast")
	assert.Equal(t, 45, updated.Settings.TimerDuration)

	// Invalid values are ignored.
	r.handleSettings(&SettingsPatch{
		TimerDuration: intPtr(-1),
		WinCondition:  strPtr("sudden-death"),
	})

	r.mu.Lock()
	assert.Equal(t, 45, r.settings.TimerDuration)
	assert.Equal(t, winScore, r.settings.WinCondition)
	r.mu.Unlock()
}

func TestSnapshotTimerOmittedOnceAllAnswered(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	r := reg.create()

	joinRoom(t, r, "ana")
	joinRoom(t, r, "bia")

	r.handleStart()
	waitForPhase(t, r, phaseAnswerInput)

	r.mu.Lock()
	r.deadline = time.Now().Add(30 * time.Second)
	snapshot := r.snapshotLocked()
	assert.Positive(t, snapshot.Timer, "mid-round snapshots carry the remaining countdown")

	// With every connected player answered, the deadline now tracks the
	// settle timer and must not surface as an answer countdown.
	for _, player := range r.players {
		player.IsAnswered = true
	}
	snapshot = r.snapshotLocked()
	assert.Zero(t, snapshot.Timer)
	r.mu.Unlock()

	t.Cleanup(func() { reg.destroy(r.code) })
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
