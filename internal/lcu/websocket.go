package lcu

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventType represents LCU WebSocket event types
type EventType int

const (
	EventTypeSubscribe   EventType = 5
	EventTypeUnsubscribe EventType = 6
	EventTypeEvent       EventType = 8
)

const gameflowEvent = "OnJsonApiEvent_lol-gameflow_v1_gameflow-phase"

// PhaseHandler is called when the gameflow phase changes. Phase values of
// interest are "EndOfGame" (a match just finished) and "None".
type PhaseHandler func(phase string)

// WebSocketClient watches LCU gameflow events so the caller can re-run
// ingestion as soon as a game ends, instead of polling the history endpoint.
type WebSocketClient struct {
	conn         *websocket.Conn
	credentials  *Credentials
	mu           sync.Mutex
	isConnected  bool
	stopChan     chan struct{}
	phaseHandler PhaseHandler
}

// NewWebSocketClient creates a new WebSocket client
func NewWebSocketClient() *WebSocketClient {
	return &WebSocketClient{
		stopChan: make(chan struct{}),
	}
}

// OnPhaseChange registers the handler invoked for each gameflow phase event.
func (w *WebSocketClient) OnPhaseChange(handler PhaseHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.phaseHandler = handler
}

// Connect establishes WebSocket connection to LCU
func (w *WebSocketClient) Connect(creds *Credentials) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isConnected {
		return nil
	}

	w.credentials = creds

	dialer := websocket.Dialer{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
		HandshakeTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("wss://127.0.0.1:%s", creds.Port)
	header := http.Header{}
	header.Set("Authorization", "Basic "+basicAuth("riot", creds.Password))

	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return fmt.Errorf("failed to connect to LCU WebSocket: %w", err)
	}

	w.conn = conn
	w.isConnected = true

	if err := w.subscribe(gameflowEvent); err != nil {
		w.conn.Close()
		w.isConnected = false
		return fmt.Errorf("failed to subscribe to gameflow: %w", err)
	}

	go w.listen()

	return nil
}

// Watch keeps the connection alive until ctx is cancelled, reconnecting
// with backoff when the client drops the socket (e.g. on client restart).
func (w *WebSocketClient) Watch(ctx context.Context, creds *Credentials) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		default:
		}

		if !w.connected() {
			if err := w.Connect(creds); err != nil {
				log.Printf("[LCU-WS] Reconnect failed: %v (retrying in %s)", err, backoff)
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				if backoff < 30*time.Second {
					backoff *= 2
				}
				continue
			}
			log.Println("[LCU-WS] Connected to gameflow events")
			backoff = time.Second
		}

		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-time.After(time.Second):
		}
	}
}

func (w *WebSocketClient) connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isConnected
}

// subscribe sends a subscription message for an event
func (w *WebSocketClient) subscribe(event string) error {
	msg := []interface{}{EventTypeSubscribe, event}
	return w.conn.WriteJSON(msg)
}

// listen reads messages from the WebSocket
func (w *WebSocketClient) listen() {
	defer func() {
		w.mu.Lock()
		w.isConnected = false
		if w.conn != nil {
			w.conn.Close()
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-w.stopChan:
			return
		default:
			_, message, err := w.conn.ReadMessage()
			if err != nil {
				return
			}

			w.handleMessage(message)
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (w *WebSocketClient) handleMessage(data []byte) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}

	if len(raw) < 3 {
		return
	}

	var eventType EventType
	if err := json.Unmarshal(raw[0], &eventType); err != nil {
		return
	}

	if eventType != EventTypeEvent {
		return
	}

	var eventName string
	if err := json.Unmarshal(raw[1], &eventName); err != nil {
		return
	}

	if eventName == gameflowEvent {
		w.handleGameflowEvent(raw[2])
	}
}

// handleGameflowEvent extracts the phase string from an event payload
func (w *WebSocketClient) handleGameflowEvent(payload json.RawMessage) {
	var eventData struct {
		EventType string          `json:"eventType"`
		URI       string          `json:"uri"`
		Data      json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(payload, &eventData); err != nil {
		return
	}

	var phase string
	if err := json.Unmarshal(eventData.Data, &phase); err != nil {
		return
	}

	w.mu.Lock()
	handler := w.phaseHandler
	w.mu.Unlock()

	if handler != nil {
		handler(phase)
	}
}

// Close shuts down the WebSocket connection
func (w *WebSocketClient) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isConnected {
		return
	}

	close(w.stopChan)
	w.stopChan = make(chan struct{})
	if w.conn != nil {
		w.conn.Close()
	}
	w.isConnected = false
}

func basicAuth(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}
