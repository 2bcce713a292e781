package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientEvent is what the UI sends over the chat websocket.
type ClientEvent struct {
	Type string `json:"type"`           // "select" | "message" | "reset"
	Mode string `json:"mode,omitempty"` // for "select"
	Body string `json:"body,omitempty"` // for "message"
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "message" | "info" | "error"
	Data any    `json:"data,omitempty"`
}

// Conversation modes, one per sidebar option.
const (
	modeApartment = "apartment"
	modeRoommate  = "roommate"
	modeSupport   = "support"
)

const maxHistoryTurns = 20

type chatTurn struct {
	role string // "Student" | "LeasyBot"
	text string
}

// chatSession is the per-connection conversation state: the selected mode
// and a bounded transcript. Each connection owns exactly one session; there
// is no shared session state between users.
type chatSession struct {
	mode    string
	history []chatTurn
}

// reset clears the conversation, mirroring the "Clear Chat Window" action.
func (s *chatSession) reset() {
	s.mode = ""
	s.history = nil
}

func (s *chatSession) remember(role, text string) {
	s.history = append(s.history, chatTurn{role: role, text: text})
	if len(s.history) > maxHistoryTurns {
		s.history = s.history[len(s.history)-maxHistoryTurns:]
	}
}

// Client represents a WebSocket client connection
type Client struct {
	userID  int
	conn    *websocket.Conn
	send    chan ServerEvent
	db      *sql.DB
	session chatSession
}

// Hub tracks the active chat connection per user. A user gets one live bot
// conversation at a time: a new connection supersedes the old one.
type Hub struct {
	clientByUser map[int]*Client
	mu           sync.Mutex
}

func newHub() *Hub {
	return &Hub{clientByUser: make(map[int]*Client)}
}

// register installs c as the user's active session and returns the client it
// replaced, if any, so the caller can close it.
func (h *Hub) register(c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.clientByUser[c.userID]
	h.clientByUser[c.userID] = c
	return prev
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientByUser[c.userID] == c {
		delete(h.clientByUser, c.userID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For development: allow the Vite dev origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// global hub
var chatHub = newHub()

func wsChatHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error for user %d: %v", userID, err)
			return
		}

		client := &Client{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
			db:     db,
		}
		if prev := chatHub.register(client); prev != nil {
			prev.conn.Close()
		}

		// Announce connection to this client
		client.send <- ServerEvent{Type: "info", Data: "Hi, how may I assist you today?"}

		// Start writer
		go clientWriter(client)
		// Start reader (blocks)
		clientReader(client)
	}
}

func clientReader(c *Client) {
	defer func() {
		chatHub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var evt ClientEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			c.send <- ServerEvent{Type: "error", Data: "invalid message format"}
			continue
		}

		for _, out := range c.handleEvent(context.Background(), evt) {
			c.send <- out
		}
	}
}

// handleEvent advances the session for one client event and returns the
// events to send back. Kept free of any websocket I/O so it can be tested
// against a bare session.
func (c *Client) handleEvent(ctx context.Context, evt ClientEvent) []ServerEvent {
	switch evt.Type {
	case "select":
		switch evt.Mode {
		case modeApartment, modeRoommate, modeSupport:
			c.session.mode = evt.Mode
			return []ServerEvent{{Type: "info", Data: "Selected option: " + evt.Mode}}
		default:
			return []ServerEvent{{Type: "error", Data: "unknown conversation type"}}
		}

	case "message":
		if c.session.mode == "" {
			return []ServerEvent{{Type: "error", Data: "choose a conversation type first"}}
		}
		if strings.TrimSpace(evt.Body) == "" {
			return []ServerEvent{{Type: "error", Data: "empty message"}}
		}

		prompt := buildChatPrompt(c.session, listingTable, evt.Body)
		reply, err := generate(ctx, prompt)
		if err != nil {
			log.Printf("Chat generation failed for user %d: %v", c.userID, err)
			return []ServerEvent{{Type: "error", Data: "LeasyBot is unavailable right now, please try again"}}
		}

		c.session.remember("Student", evt.Body)
		c.session.remember("LeasyBot", reply)
		return []ServerEvent{{Type: "message", Data: reply}}

	case "reset":
		c.session.reset()
		return []ServerEvent{{Type: "info", Data: "conversation cleared"}}

	default:
		return []ServerEvent{{Type: "error", Data: "unknown message type"}}
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// buildChatPrompt assembles the mode instructions, the listing digest when
// relevant, the transcript so far and the new message into one prompt.
func buildChatPrompt(s chatSession, listings []Listing, body string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt(s.mode))
	sb.WriteString("\n\n")
	if s.mode == modeApartment && len(listings) > 0 {
		sb.WriteString("Available listings:\n")
		sb.WriteString(listingDigest(listings, 25))
		sb.WriteString("\n")
	}
	if len(s.history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range s.history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.role, turn.text)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Student: %s\nLeasyBot:", body)
	return sb.String()
}

func systemPrompt(mode string) string {
	const common = "You are LeasyBot, a helpful assistant for university students on the EasyLeasy platform. Keep answers short and friendly."
	switch mode {
	case modeApartment:
		return common + " The student is looking for an apartment. Recommend only from the listings provided."
	case modeRoommate:
		return common + " The student is looking for roommates. Help them think about compatibility: smoking, pets, sleep schedule and guests."
	case modeSupport:
		return common + " The student needs tech support with their EasyLeasy account. Walk them through fixes step by step."
	default:
		return common
	}
}

// listingDigest renders at most max listings as compact one-line summaries
// for the model's context.
func listingDigest(listings []Listing, max int) string {
	var sb strings.Builder
	for i, l := range listings {
		if i >= max {
			fmt.Fprintf(&sb, "...and %d more\n", len(listings)-max)
			break
		}
		fmt.Fprintf(&sb, "- $%.0f/mo, %dBR", l.Cost, l.Bedrooms)
		if l.PetsAllowed {
			sb.WriteString(", pets OK")
		}
		if l.Parking {
			sb.WriteString(", parking")
		}
		if l.Gym {
			sb.WriteString(", gym")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
