package main

import (
	"crypto/rand"
	"sync"
	"time"
)

const roomCodeLength = 4

// registry owns every live room, keyed by code. Rooms never share mutable
// state, so the registry lock only guards the map itself.
type registry struct {
	mu    sync.Mutex
	rooms map[string]*room

	cfg       *Config
	questions *questionSet
	matcher   *matcher
}

func newRegistry(cfg *Config, questions *questionSet) *registry {
	reg := &registry{
		rooms:     make(map[string]*room),
		cfg:       cfg,
		questions: questions,
		matcher:   newMatcher(newPortugueseNormalizer()),
	}
	if cfg.sessionTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// create registers an empty lobby under a fresh collision-free code.
func (reg *registry) create() *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = newRoomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	r := newRoom(code, reg.cfg, reg.questions, reg.matcher)
	reg.rooms[code] = r

	logf(reg.cfg, "GAMES: Created room %s", code)

	return r
}

func (reg *registry) lookup(code string) *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.rooms[code]
}

// destroy removes a room, notifying members first and cancelling any
// outstanding timer so no deferred phase advance can fire on a dead room.
func (reg *registry) destroy(code string) {
	reg.mu.Lock()
	r, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked(SimpleMessage{Type: "room_destroyed"})

	r.destroyed = true
	r.stopTimerLocked()

	for c := range r.clients {
		delete(r.clients, c)
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}

	logf(reg.cfg, "GAMES: Destroyed room %s", code)
}

// reaperLoop periodically destroys rooms idle longer than the configured
// session timeout.
func (reg *registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.sessionTimeout)

		reg.mu.Lock()
		var stale []string
		for code, r := range reg.rooms {
			r.mu.Lock()
			last := r.lastActive
			r.mu.Unlock()

			if last.Before(cutoff) {
				stale = append(stale, code)
			}
		}
		reg.mu.Unlock()

		for _, code := range stale {
			logf(reg.cfg, "GAMES: Reaping idle room %s", code)
			reg.destroy(code)
		}
	}
}

// newRoomCode generates a crypto-random 4-uppercase-letter code. Uniqueness
// against live rooms is the caller's responsibility.
func newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, roomCodeLength)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}

	return string(out)
}
