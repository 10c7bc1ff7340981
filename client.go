package main

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 100
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	sessionID    string
	isController bool
	remoteAddr   string
	msgCount     int
	msgResetAt   time.Time
	// Auth state
	pilotID   int64  // 0 = guest
	pilotName string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			var err error
			if len(message) > 0 && message[0] == binaryOutTag {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.queue(data)
}

// SendBinary queues a binary message, marked so WritePump can tell it from text.
// JSON text never starts with 0xFF.
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = binaryOutTag
	copy(msg[1:], data)
	c.queue(msg)
}

// queue drops the message if the client is too slow or already gone
func (c *Client) queue(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgStart:
		c.handleStart(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgControl:
		c.handleControl(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) session() *Session {
	if c.sessionID == "" {
		return nil
	}
	return c.hub.sessions.Get(c.sessionID)
}

func (c *Client) handleStart(data json.RawMessage) {
	if c.isController {
		c.sendError("controllers cannot start runs")
		return
	}
	var msg StartMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad start message")
			return
		}
	}
	name := c.pilotName
	if name == "" {
		name = strings.TrimSpace(msg.Name)
	}
	if name == "" {
		name = GuestName()
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.session()
	if sess == nil {
		var err error
		sess, err = c.hub.sessions.Create(c, name, c.pilotID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sessionID = sess.ID
	} else {
		sess.SetPilot(name, c.pilotID)
		sess.Restart()
	}

	cfg := sess.Arena.Config()
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		SID:        sess.ID,
		Controller: "/api/runs/" + sess.ID + "/qr",
		Arena: ArenaShape{
			Width:    cfg.Field.ArenaWidth,
			Height:   cfg.Field.ArenaHeight,
			TileSize: cfg.Field.TileSize,
			MinX:     cfg.Field.MinX,
			MinY:     cfg.Field.MinY,
			Cols:     cfg.Field.Width,
			Rows:     cfg.Field.Height,
			Max:      cfg.Field.MaxStrength,
		},
	}})
	if data, err := EncodeFrame(sess.Arena.Snapshot()); err == nil {
		c.SendBinary(data)
	}
}

// handleBinaryInput decodes a compact 8-byte binary input message
func (c *Client) handleBinaryInput(msg []byte) {
	pos, _, ok := DecodeBinaryInput(msg)
	if !ok {
		return
	}
	c.steer(pos)
}

func (c *Client) handleInput(data json.RawMessage) {
	var input InputMsg
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.steer(Vec2{input.X, input.Y})
}

func (c *Client) steer(pos Vec2) {
	sess := c.session()
	if sess == nil {
		return
	}
	sess.Touch()
	sess.Arena.SetTarget(pos)
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		if sess := c.session(); sess != nil {
			sess.RemoveController(c)
		}
	} else {
		c.hub.sessions.Remove(c.sessionID)
	}
	c.sessionID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.Get(msg.SID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	c.sessionID = msg.SID
	c.isController = true
	sess.SetController(c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"sid": msg.SID}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Name, msg.Password)
	if err != nil {
		c.sendError(authError(err))
		return
	}
	c.authenticated(id, strings.TrimSpace(msg.Name), token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Name, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(authError(err))
		return
	}
	c.authenticated(id, strings.TrimSpace(msg.Name), token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, name, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authenticated(id, name, msg.Token)
}

func (c *Client) authenticated(id int64, name, token string) {
	c.pilotID = id
	c.pilotName = name
	if sess := c.session(); sess != nil && !c.isController {
		sess.SetPilot(name, id)
	}
	best, err := c.hub.store.PilotBest(id)
	if err != nil {
		log.Printf("auth: best for %d: %v", id, err)
	}
	c.hub.journal.Track(EvtLogin, c.sessionID, id, nil)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:   token,
		Name:    name,
		PilotID: id,
		Best:    best,
	}})
}

// authError maps account errors to what the player sees
func authError(err error) string {
	switch {
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrBadCredentials), errors.Is(err, errTooManyAttempts):
		return err.Error()
	case strings.HasPrefix(err.Error(), "name must"), strings.HasPrefix(err.Error(), "password must"):
		return err.Error()
	}
	log.Printf("auth: %v", err)
	return "internal error"
}
