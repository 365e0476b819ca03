package main

import (
	"strings"
	"sync"
	"time"
)

type Phase int

const (
	phaseLobby Phase = iota
	phaseQuestion
	phaseAnswerInput
	phaseGrouping
	phaseReveal
	phaseScoreboard
)

func (p Phase) String() string {
	switch p {
	case phaseLobby:
		return "LOBBY"
	case phaseQuestion:
		return "QUESTION"
	case phaseAnswerInput:
		return "ANSWER_INPUT"
	case phaseGrouping:
		return "GROUPING"
	case phaseReveal:
		return "REVEAL"
	case phaseScoreboard:
		return "SCOREBOARD"
	}
	return "UNKNOWN"
}

const (
	winRounds = "rounds"
	winScore  = "score"
	winTime   = "time"
)

// Player is one registered participant. The id is the current connection id;
// reconnection splices the same record under a new id.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	IsAnswered bool   `json:"isAnswered"`
	Connected  bool   `json:"connected"`
	HasPinkCow bool   `json:"hasPinkCow"`

	answer string
}

type Settings struct {
	TimerDuration int      `json:"timerDuration"`
	Decks         []string `json:"decks"`
	WinCondition  string   `json:"winCondition"`
	WinTarget     int      `json:"winTarget"`
}

func defaultSettings() Settings {
	return Settings{
		TimerDuration: 30,
		Decks:         []string{deckAll},
		WinCondition:  winRounds,
		WinTarget:     5,
	}
}

// SettingsPatch carries a partial settings update; nil fields are left
// unchanged by the merge.
type SettingsPatch struct {
	TimerDuration *int      `json:"timerDuration"`
	Decks         *[]string `json:"decks"`
	WinCondition  *string   `json:"winCondition"`
	WinTarget     *int      `json:"winTarget"`
}

type roomPacing struct {
	questionDelay time.Duration
	settleDelay   time.Duration
	revealDelay   time.Duration
}

// room is one live game session. All state below mu is guarded by it; every
// entry point (websocket command, lifecycle signal, timer callback) locks
// the room for its whole handler, so handlers for one room never interleave.
type room struct {
	code      string
	cfg       *Config
	pacing    roomPacing
	questions *questionSet
	matcher   *matcher

	mu        sync.Mutex
	destroyed bool

	hostID      string
	players     map[string]*Player
	clients     map[*client]bool
	phase       Phase
	question    *Question
	used        map[int]bool
	round       int
	settings    Settings
	submissions []submission
	startedAt   time.Time
	lastActive  time.Time

	// At most one outstanding timer per room; scheduleLocked replaces it.
	timer    *time.Timer
	deadline time.Time
}

func newRoom(code string, cfg *Config, questions *questionSet, m *matcher) *room {
	now := time.Now()
	return &room{
		code:       code,
		cfg:        cfg,
		pacing:     cfg.pacing(),
		questions:  questions,
		matcher:    m,
		players:    make(map[string]*Player),
		clients:    make(map[*client]bool),
		phase:      phaseLobby,
		used:       make(map[int]bool),
		settings:   defaultSettings(),
		lastActive: now,
	}
}

// scheduleLocked arms the room's single timer. The callback re-locks the
// room and is a no-op once the room has been destroyed; phase checks are the
// callee's responsibility.
func (r *room) scheduleLocked(d time.Duration, fn func()) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.deadline = time.Now().Add(d)
	r.timer = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.destroyed {
			return
		}
		fn()
	})
}

func (r *room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *room) touchLocked() {
	r.lastActive = time.Now()
}

// broadcastLocked fans a message out to every connected client, dropping
// clients whose send buffer is full.
func (r *room) broadcastLocked(msg any) {
	for c := range r.clients {
		select {
		case c.send <- msg:
		default:
			delete(r.clients, c)
			close(c.send)
		}
	}
}

func (r *room) unicastLocked(connID string, msg any) {
	for c := range r.clients {
		if c.connID != connID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			delete(r.clients, c)
			close(c.send)
		}
		return
	}
}

// rosterLocked copies the player map so broadcasts never share mutable state
// with later rounds.
func (r *room) rosterLocked() map[string]Player {
	roster := make(map[string]Player, len(r.players))
	for id, player := range r.players {
		roster[id] = *player
	}
	return roster
}

func (r *room) broadcastRosterLocked() {
	r.broadcastLocked(RosterMessage{
		Type:    "update_players",
		Players: r.rosterLocked(),
	})
}

// snapshotLocked builds the full current-state message sent to joiners and
// reconnecting players so their view can resume mid-game.
func (r *room) snapshotLocked() GameStateMessage {
	msg := GameStateMessage{
		Type:    "game_state_update",
		State:   r.phase.String(),
		Round:   r.round,
		Players: r.rosterLocked(),
	}
	if r.question != nil {
		question := *r.question
		msg.Question = &question
	}
	// Once everyone connected has answered, the deadline belongs to the
	// settle timer, not the answer countdown, so no timer is reported.
	if r.phase == phaseAnswerInput && !r.allConnectedAnsweredLocked() {
		if remaining := int(time.Until(r.deadline).Seconds()); remaining > 0 {
			msg.Timer = remaining
		}
	}
	return msg
}

func (r *room) connectedCountLocked() int {
	count := 0
	for _, player := range r.players {
		if player.Connected {
			count++
		}
	}
	return count
}

func (r *room) allConnectedAnsweredLocked() bool {
	if r.connectedCountLocked() == 0 {
		return false
	}
	for _, player := range r.players {
		if player.Connected && !player.IsAnswered {
			return false
		}
	}
	return true
}

// findDisconnectedLocked returns the disconnected player whose name matches,
// case-insensitively, or nil.
func (r *room) findDisconnectedLocked(name string) *Player {
	for _, player := range r.players {
		if !player.Connected && strings.EqualFold(player.Name, name) {
			return player
		}
	}
	return nil
}

func (r *room) nameTakenLocked(name string) bool {
	for _, player := range r.players {
		if player.Connected && strings.EqualFold(player.Name, name) {
			return true
		}
	}
	return false
}
