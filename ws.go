package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string         `json:"type"`               // "join", "start_game", "update_settings", "submit_answer", "play_again"
	Nickname string         `json:"nickname,omitempty"` // join
	Answer   string         `json:"answer,omitempty"`   // submit_answer
	Settings *SettingsPatch `json:"settings,omitempty"` // update_settings
}

// SessionInfoMessage is sent immediately on connect so the client knows its
// connection id and whether it is the host.
type SessionInfoMessage struct {
	Type     string   `json:"type"` // "session_info"
	RoomCode string   `json:"roomCode"`
	PlayerID string   `json:"playerId"`
	IsHost   bool     `json:"isHost"`
	Settings Settings `json:"settings"`
}

type JoinResultMessage struct {
	Type     string `json:"type"` // "join_result"
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

type RosterMessage struct {
	Type    string            `json:"type"` // "update_players"
	Players map[string]Player `json:"players"`
}

// GameStateMessage announces a phase transition, carrying only the fields
// relevant to that phase.
type GameStateMessage struct {
	Type     string            `json:"type"` // "game_state_update"
	State    string            `json:"state"`
	Question *Question         `json:"question,omitempty"`
	Round    int               `json:"round,omitempty"`
	Timer    int               `json:"timer,omitempty"`
	Groups   []*answerGroup    `json:"groups,omitempty"`
	Players  map[string]Player `json:"players,omitempty"`
}

// PlayerAnsweredMessage tells the host a player answered, without the
// content.
type PlayerAnsweredMessage struct {
	Type     string `json:"type"` // "player_answered"
	PlayerID string `json:"playerId"`
}

type SettingsMessage struct {
	Type     string   `json:"type"` // "settings_updated"
	Settings Settings `json:"settings"`
}

// SimpleMessage is for generic notifications ("answer_received",
// "room_destroyed", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type createRoomResponse struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode"`
}

type client struct {
	conn   *websocket.Conn
	send   chan any
	connID string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (c *client) readPump(r *room, reg *registry) {
	defer func() {
		if r.handleDisconnect(c) {
			reg.destroy(r.code)
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			r.handleJoin(c, msg.Nickname)
		case "start_game":
			r.handleStart()
		case "update_settings":
			r.handleSettings(msg.Settings)
		case "submit_answer":
			r.handleSubmit(c.connID, msg.Answer)
		case "play_again":
			r.handlePlayAgain()
		default:
			// ignore unknown types
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// WebSocket handler that picks the room based on :code
func serveWS(cfg *Config, reg *registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))

		room := reg.lookup(code)
		if room == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade error for room %s: %v", code, err)
			return
		}

		c := &client{
			conn:   conn,
			send:   make(chan any, 16),
			connID: uuid.NewString(),
		}

		if !room.handleRegister(c) {
			_ = conn.Close()
			return
		}

		go c.writePump()
		c.readPump(room, reg)
	}
}

// redirectNewRoom handles GET /room by creating a room and redirecting to
// /room/:code.
func redirectNewRoom(cfg *Config, path string, reg *registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room := reg.create()
		http.Redirect(w, r, cfg.prefix+path+"/"+room.code, http.StatusTemporaryRedirect)
	}
}

// createRoomAPI is the JSON variant of room creation, for non-browser
// clients.
func createRoomAPI(cfg *Config, reg *registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room := reg.create()

		w.Header().Set("Content-Type", "application/json")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(createRoomResponse{
			Success:  true,
			RoomCode: room.code,
		}); err != nil {
			errs <- err

			return
		}
	}
}

func serveRoomPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/hivemind/index.html")
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using
// go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// registerHivemindGame sets up routes so that:
//   - $path              → redirects to a new random room
//   - $path/:code        → HTML client
//   - $path/:code/ws     → WebSocket for that room
//   - $path/:code/qr     → PNG QR code for that room URL
func registerHivemindGame(cfg *Config, path string, mux *httprouter.Router, questions *questionSet, errs chan<- error) {
	reg := newRegistry(cfg, questions)

	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, path, reg))

	mux.GET(cfg.prefix+"/api"+path+"/new", createRoomAPI(cfg, reg, errs))

	mux.GET(cfg.prefix+path+"/:code", serveRoomPage(cfg, errs))

	mux.GET(cfg.prefix+"/assets/hivemind/app.css", serveAssets(cfg, errs))
	mux.GET(cfg.prefix+"/assets/hivemind/app.js", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+path+"/:code/ws", serveWS(cfg, reg))

	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler(cfg))
}
