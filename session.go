package main

import (
	"strings"
	"time"
)

// handleRegister wires a new connection into the room. The first connection
// to a room becomes its host.
func (r *room) handleRegister(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return false
	}

	r.touchLocked()
	r.clients[c] = true

	isHost := false
	if r.hostID == "" {
		r.hostID = c.connID
		isHost = true
		logf(r.cfg, "GAMES: Host connected to room %s", r.code)
	}

	c.send <- SessionInfoMessage{
		Type:     "session_info",
		RoomCode: r.code,
		PlayerID: c.connID,
		IsHost:   isHost,
		Settings: r.settings,
	}
	c.send <- r.snapshotLocked()

	return true
}

// handleJoin processes a join request. Fresh joins are only accepted in the
// lobby; a nickname matching a currently-disconnected player is treated as a
// reconnection and accepted in any phase.
func (r *room) handleJoin(c *client, nickname string) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if returning := r.findDisconnectedLocked(nickname); returning != nil {
		// Splice the existing record under the new connection id in one
		// step, so no broadcast can observe a roster without this player.
		oldID := returning.ID
		delete(r.players, oldID)
		returning.ID = c.connID
		returning.Connected = true
		r.players[c.connID] = returning

		for i := range r.submissions {
			if r.submissions[i].playerID == oldID {
				r.submissions[i].playerID = c.connID
			}
		}

		logf(r.cfg, "GAMES: Player %q reconnected to room %s", nickname, r.code)

		r.unicastLocked(c.connID, JoinResultMessage{Type: "join_result", Success: true, PlayerID: c.connID})
		r.unicastLocked(c.connID, r.snapshotLocked())
		r.broadcastRosterLocked()
		return
	}

	if r.phase != phaseLobby {
		r.unicastLocked(c.connID, JoinResultMessage{Type: "join_result", Error: "game already in progress"})
		return
	}

	if r.nameTakenLocked(nickname) {
		r.unicastLocked(c.connID, JoinResultMessage{Type: "join_result", Error: "name already in use"})
		return
	}

	if _, ok := r.players[c.connID]; ok {
		return
	}

	r.players[c.connID] = &Player{
		ID:        c.connID,
		Name:      nickname,
		Connected: true,
	}

	logf(r.cfg, "GAMES: Player %q joined room %s", nickname, r.code)

	r.unicastLocked(c.connID, JoinResultMessage{Type: "join_result", Success: true, PlayerID: c.connID})
	r.unicastLocked(c.connID, r.snapshotLocked())
	r.broadcastRosterLocked()
}

// handleStart begins round 1. Host-only by convention; the request is not
// authenticated.
func (r *room) handleStart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != phaseLobby || len(r.players) == 0 {
		return
	}

	r.round = 0
	clear(r.used)
	r.startedAt = time.Now()

	logf(r.cfg, "GAMES: Game started in room %s with %d players", r.code, len(r.players))

	r.nextRoundLocked()
}

func (r *room) nextRoundLocked() {
	r.round++
	r.phase = phaseQuestion

	question := r.questions.draw(r.settings.Decks, r.used)
	r.question = &question
	r.submissions = r.submissions[:0]

	for _, player := range r.players {
		player.answer = ""
		player.IsAnswered = false
	}

	r.broadcastLocked(GameStateMessage{
		Type:     "game_state_update",
		State:    r.phase.String(),
		Question: r.question,
		Round:    r.round,
	})

	r.scheduleLocked(r.pacing.questionDelay, r.startInputLocked)
}

// startInputLocked opens the answer window and arms the round timer.
func (r *room) startInputLocked() {
	if r.phase != phaseQuestion {
		return
	}

	r.phase = phaseAnswerInput
	duration := time.Duration(r.settings.TimerDuration) * time.Second

	r.broadcastLocked(GameStateMessage{
		Type:  "game_state_update",
		State: r.phase.String(),
		Timer: r.settings.TimerDuration,
	})

	r.scheduleLocked(duration, r.calculateResultsLocked)
}

// handleSubmit records a player's answer. Out-of-phase or repeat submissions
// are silently ignored; they are not state transitions.
func (r *room) handleSubmit(connID, answer string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != phaseAnswerInput {
		return
	}

	player, ok := r.players[connID]
	if !ok || player.IsAnswered {
		return
	}

	player.answer = answer
	player.IsAnswered = true
	r.submissions = append(r.submissions, submission{playerID: connID, text: answer})

	// The host learns that this player answered, but not what.
	r.unicastLocked(r.hostID, PlayerAnsweredMessage{Type: "player_answered", PlayerID: connID})
	r.unicastLocked(connID, SimpleMessage{Type: "answer_received"})

	if r.allConnectedAnsweredLocked() {
		// Brief settle window, then results. This replaces the round timer,
		// so whichever trigger ran first wins and the loser finds the phase
		// already advanced.
		r.scheduleLocked(r.pacing.settleDelay, r.calculateResultsLocked)
	}
}

// calculateResultsLocked groups and scores the round. Both the round timer
// and the all-answered settle timer land here; the phase guard makes the
// race idempotent, and the transient grouping phase marks the round as
// already being processed.
func (r *room) calculateResultsLocked() {
	if r.phase != phaseAnswerInput {
		return
	}

	r.phase = phaseGrouping
	r.stopTimerLocked()

	groups := groupAnswers(r.matcher, r.submissions)
	scoreRound(groups, r.players)

	logf(r.cfg, "GAMES: Round %d in room %s produced %d groups from %d answers",
		r.round, r.code, len(groups), len(r.submissions))

	r.phase = phaseReveal

	r.broadcastLocked(GameStateMessage{
		Type:    "game_state_update",
		State:   r.phase.String(),
		Groups:  groups,
		Players: r.rosterLocked(),
	})

	r.scheduleLocked(r.pacing.revealDelay, r.endRevealLocked)
}

// endRevealLocked leaves the reveal screen: scoreboard if the win condition
// is met, otherwise the next round.
func (r *room) endRevealLocked() {
	if r.phase != phaseReveal {
		return
	}

	if r.winConditionMetLocked() {
		r.phase = phaseScoreboard
		r.stopTimerLocked()

		logf(r.cfg, "GAMES: Game over in room %s after %d rounds", r.code, r.round)

		r.broadcastLocked(GameStateMessage{
			Type:    "game_state_update",
			State:   r.phase.String(),
			Players: r.rosterLocked(),
		})
		return
	}

	r.nextRoundLocked()
}

// winConditionMetLocked is evaluated once per round boundary, never
// mid-round.
func (r *room) winConditionMetLocked() bool {
	switch r.settings.WinCondition {
	case winScore:
		for _, player := range r.players {
			if player.Score >= r.settings.WinTarget {
				return true
			}
		}
		return false
	case winTime:
		return time.Since(r.startedAt) >= time.Duration(r.settings.WinTarget)*time.Minute
	default:
		return r.round >= r.settings.WinTarget
	}
}

// handleSettings merges a partial settings update and broadcasts the result.
func (r *room) handleSettings(patch *SettingsPatch) {
	if patch == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if patch.TimerDuration != nil && *patch.TimerDuration > 0 {
		r.settings.TimerDuration = *patch.TimerDuration
	}
	if patch.Decks != nil && len(*patch.Decks) > 0 {
		r.settings.Decks = *patch.Decks
	}
	if patch.WinCondition != nil {
		switch *patch.WinCondition {
		case winRounds, winScore, winTime:
			r.settings.WinCondition = *patch.WinCondition
		}
	}
	if patch.WinTarget != nil && *patch.WinTarget > 0 {
		r.settings.WinTarget = *patch.WinTarget
	}

	r.broadcastLocked(SettingsMessage{Type: "settings_updated", Settings: r.settings})
}

// handlePlayAgain resets score and round state and returns to the lobby.
// Connected players are retained; players who never came back are dropped.
func (r *room) handlePlayAgain() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != phaseScoreboard {
		return
	}

	r.phase = phaseLobby
	r.round = 0
	r.question = nil
	clear(r.used)
	r.submissions = r.submissions[:0]
	r.stopTimerLocked()

	for id, player := range r.players {
		if !player.Connected {
			delete(r.players, id)
			continue
		}
		player.Score = 0
		player.answer = ""
		player.IsAnswered = false
		player.HasPinkCow = false
	}

	logf(r.cfg, "GAMES: Room %s reset to lobby", r.code)

	r.broadcastRosterLocked()
	r.broadcastLocked(GameStateMessage{
		Type:  "game_state_update",
		State: r.phase.String(),
	})
}

// handleDisconnect detaches a connection. It reports whether the room must
// be destroyed (the host left); the caller owns registry removal so lock
// ordering stays registry-then-room.
func (r *room) handleDisconnect(c *client) bool {
	r.mu.Lock()

	if r.destroyed {
		r.mu.Unlock()
		return false
	}

	r.touchLocked()

	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}

	if c.connID == r.hostID {
		r.mu.Unlock()
		return true
	}

	player, ok := r.players[c.connID]
	if !ok {
		r.mu.Unlock()
		return false
	}

	if r.phase == phaseLobby {
		delete(r.players, c.connID)
		logf(r.cfg, "GAMES: Player %q left room %s", player.Name, r.code)
	} else {
		player.Connected = false
		logf(r.cfg, "GAMES: Player %q disconnected from room %s", player.Name, r.code)
	}

	r.broadcastRosterLocked()

	// A departure can leave every remaining player already answered.
	if r.phase == phaseAnswerInput && r.allConnectedAnsweredLocked() {
		r.scheduleLocked(r.pacing.settleDelay, r.calculateResultsLocked)
	}

	r.mu.Unlock()
	return false
}
