package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

type fakeControl struct {
	started  bool
	stopped  bool
	mode     string
	startErr error
}

func (f *fakeControl) startStreaming() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeControl) stopStreaming() { f.stopped = true }

func (f *fakeControl) changeMode(name string) error {
	switch name {
	case "relaxed", "focused", "stressed", "sleepy":
		f.mode = name
		return nil
	default:
		return errors.New("invalid operating mode: " + name)
	}
}

func (f *fakeControl) currentMode() string { return f.mode }

func newTestClient(control streamControl) *Client {
	return &Client{
		send:    make(chan []byte, 8),
		control: control,
		logger:  logging.NewLogger("error"),
	}
}

func readReply(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var msg envelope
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no reply queued")
		return envelope{}
	}
}

func TestHandleCommandStartStreaming(t *testing.T) {
	control := &fakeControl{mode: "relaxed"}
	c := newTestClient(control)

	c.handleCommand([]byte(`{"event":"start_streaming"}`))

	assert.True(t, control.started)
	assert.Equal(t, eventStreamingStarted, readReply(t, c).Event)
}

func TestHandleCommandStartStreamingFailure(t *testing.T) {
	control := &fakeControl{startErr: errors.New("scheduler already running")}
	c := newTestClient(control)

	c.handleCommand([]byte(`{"event":"start_streaming"}`))

	assert.False(t, control.started)
	assert.Equal(t, eventError, readReply(t, c).Event)
}

func TestHandleCommandStopStreaming(t *testing.T) {
	control := &fakeControl{mode: "relaxed"}
	c := newTestClient(control)

	c.handleCommand([]byte(`{"event":"stop_streaming"}`))

	assert.True(t, control.stopped)
	assert.Equal(t, eventStreamingStopped, readReply(t, c).Event)
}

func TestHandleCommandChangeMode(t *testing.T) {
	control := &fakeControl{mode: "relaxed"}
	c := newTestClient(control)

	c.handleCommand([]byte(`{"event":"change_mode","mode":"stressed"}`))

	assert.Equal(t, "stressed", control.mode)
	reply := readReply(t, c)
	assert.Equal(t, eventModeChanged, reply.Event)
	assert.Equal(t, "stressed", reply.Mode)
}

func TestHandleCommandRejectsInvalidMode(t *testing.T) {
	control := &fakeControl{mode: "relaxed"}
	c := newTestClient(control)

	c.handleCommand([]byte(`{"event":"change_mode","mode":"meditating"}`))

	assert.Equal(t, "relaxed", control.mode, "invalid mode reached the control")
	assert.Equal(t, eventError, readReply(t, c).Event)
}

func TestHandleCommandMalformedPayload(t *testing.T) {
	c := newTestClient(&fakeControl{})

	c.handleCommand([]byte(`{not json`))

	assert.Equal(t, eventError, readReply(t, c).Event)
}

func TestHandleCommandUnknownEvent(t *testing.T) {
	c := newTestClient(&fakeControl{})

	c.handleCommand([]byte(`{"event":"self_destruct"}`))

	assert.Equal(t, eventError, readReply(t, c).Event)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(logging.NewLogger("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := newTestClient(&fakeControl{})
	second := newTestClient(&fakeControl{})
	hub.register <- first
	hub.register <- second

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte(`{"event":"eeg_update"}`))

	for _, c := range []*Client{first, second} {
		select {
		case msg := <-c.send:
			assert.JSONEq(t, `{"event":"eeg_update"}`, string(msg))
		case <-time.After(time.Second):
			t.Fatal("client did not receive the broadcast")
		}
	}
}

func TestHubDisconnectsStalledClient(t *testing.T) {
	hub := NewHub(logging.NewLogger("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	stalled := &Client{send: make(chan []byte, 1), control: &fakeControl{}, logger: logging.NewLogger("error")}
	stalled.send <- []byte("backlog")

	hub.register <- stalled
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte("update"))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestCommandAfterDisconnectDoesNotPanic(t *testing.T) {
	hub := NewHub(logging.NewLogger("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	control := &fakeControl{mode: "relaxed"}
	stalled := &Client{send: make(chan []byte, 1), control: control, logger: logging.NewLogger("error")}
	stalled.send <- []byte("backlog")

	hub.register <- stalled
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	// the broadcast disconnects the stalled client and closes its queue
	hub.Broadcast([]byte("update"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	// a command still in flight from the read side must not send on the
	// closed queue
	stalled.handleCommand([]byte(`{"event":"stop_streaming"}`))

	assert.True(t, control.stopped)
	assert.False(t, stalled.trySend([]byte("late reply")))
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(logging.NewLogger("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient(&fakeControl{})
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.unregister <- c

	select {
	case _, open := <-c.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on unregister")
	}
}
