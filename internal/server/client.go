package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Websocket events, matching the names the frontend speaks
const (
	eventConnected        = "connected"
	eventEEGUpdate        = "eeg_update"
	eventStartStreaming   = "start_streaming"
	eventStopStreaming    = "stop_streaming"
	eventChangeMode       = "change_mode"
	eventStreamingStarted = "streaming_started"
	eventStreamingStopped = "streaming_stopped"
	eventModeChanged      = "mode_changed"
	eventError            = "error"
)

// envelope is the wire frame of every websocket message
type envelope struct {
	Event string          `json:"event"`
	Mode  string          `json:"mode,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// streamControl is what the client can do to the pipeline
type streamControl interface {
	startStreaming() error
	stopStreaming()
	changeMode(name string) error
	currentMode() string
}

// Client is the middleman between one websocket connection and the hub
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	control streamControl
	logger  logging.Logger

	// mu guards closed; the hub disconnects a client while its readPump may
	// still be dispatching a command, so every send on the queue must go
	// through trySend.
	mu     sync.Mutex
	closed bool
}

// trySend queues a message unless the client is already disconnected or its
// queue is full. It reports whether the message was queued.
func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once. Only the hub calls this.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// serveClient registers a connection and pumps it until it closes
func serveClient(hub *Hub, conn *websocket.Conn, control streamControl, logger logging.Logger) {
	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		control: control,
		logger:  logger,
	}
	client.hub.register <- client

	client.reply(eventConnected, envelope{Event: eventConnected, Mode: control.currentMode()})

	go client.writePump()
	client.readPump()
}

// readPump handles inbound control messages until the connection drops
func (c *Client) readPump() {
	defer func() {
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Unexpected websocket close", logging.Fields{"error": err.Error()})
			}
			return
		}
		c.handleCommand(message)
	}
}

// handleCommand dispatches one inbound control message. Invalid mode names
// are rejected here, at the boundary, before they can reach the generator.
func (c *Client) handleCommand(message []byte) {
	var cmd envelope
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.replyError("malformed command")
		return
	}

	switch cmd.Event {
	case eventStartStreaming:
		if err := c.control.startStreaming(); err != nil {
			c.replyError(err.Error())
			return
		}
		c.reply(eventStreamingStarted, envelope{Event: eventStreamingStarted})

	case eventStopStreaming:
		c.control.stopStreaming()
		c.reply(eventStreamingStopped, envelope{Event: eventStreamingStopped})

	case eventChangeMode:
		if err := c.control.changeMode(cmd.Mode); err != nil {
			c.replyError(err.Error())
			return
		}
		c.reply(eventModeChanged, envelope{Event: eventModeChanged, Mode: c.control.currentMode()})

	default:
		c.replyError("unknown event: " + cmd.Event)
	}
}

func (c *Client) reply(event string, message envelope) {
	data, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to encode reply", logging.Fields{"event": event, "error": err.Error()})
		return
	}
	c.trySend(data)
}

func (c *Client) replyError(message string) {
	data, _ := json.Marshal(map[string]string{"event": eventError, "message": message})
	c.trySend(data)
}

// writePump flushes outbound messages and keeps the connection alive with
// pings
func (c *Client) writePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
