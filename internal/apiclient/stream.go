package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Execution event types.
const (
	EventSnapshot          = "snapshot"
	EventExecutionStart    = "execution_start"
	EventStepStart         = "step_start"
	EventStepLog           = "step_log"
	EventStepComplete      = "step_complete"
	EventExecutionComplete = "execution_complete"
)

// Event is one message of an execution stream.
type Event struct {
	ExecutionID string          `json:"executionId"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// StreamExecution subscribes to an execution's events and calls fn for each
// one until execution_complete, the server closes the stream, or ctx ends.
func (c *Client) StreamExecution(ctx context.Context, executionID string, fn func(Event)) error {
	wsURL, err := c.streamURL(executionID)
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			var raw [512]byte
			n, _ := resp.Body.Read(raw[:])
			return newHTTPError(resp.StatusCode, raw[:n])
		}
		return &Error{Message: fmt.Sprintf("stream %s: %v", executionID, err), Err: err}
	}
	defer conn.Close()

	// Unblock ReadJSON when ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return &Error{Message: fmt.Sprintf("stream %s: %v", executionID, err), Err: err}
		}
		fn(ev)
		if ev.Type == EventExecutionComplete {
			return nil
		}
	}
}

func (c *Client) streamURL(executionID string) (string, error) {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "", &Error{Message: fmt.Sprintf("unsupported base URL %q", c.baseURL)}
	}
	return base + "/api/executions" + path(executionID, "stream"), nil
}
