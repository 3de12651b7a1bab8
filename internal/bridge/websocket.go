package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type EventCallback func(event *Event)

type callbackEntry struct {
	id       int
	callback EventCallback
}

// WebSocket is the transport to the player bridge: it receives playback
// events and sends enforcement commands over one connection, reconnecting
// with a bounded number of attempts when the link drops.
type WebSocket struct {
	wsURL                string
	conn                 *websocket.Conn
	state                ConnState
	stateMu              sync.RWMutex
	writeMu              sync.Mutex
	eventCallbacks       []callbackEntry
	nextCallbackID       int
	callbacksMu          sync.RWMutex
	reconnectAttempts    int
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger
	stopCh               chan struct{}
	stopOnce             sync.Once
	listenerWg           sync.WaitGroup
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *WebSocket {
	return &WebSocket{
		wsURL:                wsURL,
		state:                ConnDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		stopCh:               make(chan struct{}),
		eventCallbacks:       make([]callbackEntry, 0),
		nextCallbackID:       1,
	}
}

func (ws *WebSocket) Connect(ctx context.Context) error {
	ws.stateMu.Lock()
	if ws.state == ConnConnected || ws.state == ConnConnecting {
		ws.stateMu.Unlock()
		ws.logger.Warn("Bridge already connected or connecting")
		return nil
	}
	ws.stateMu.Unlock()

	ws.setState(ConnConnecting)

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, ws.wsURL, nil)
	if err != nil {
		ws.logger.Error("Failed to connect to player bridge", zap.Error(err))
		ws.setState(ConnFailed)
		ws.scheduleReconnect(ctx)
		return err
	}

	ws.conn = conn
	ws.setState(ConnConnected)
	ws.reconnectAttempts = 0

	ws.logger.Info("Player bridge connected", zap.String("url", ws.wsURL))

	ws.listenerWg.Add(1)
	go ws.listen(ctx)

	return nil
}

func (ws *WebSocket) listen(ctx context.Context) {
	defer ws.listenerWg.Done()
	defer ws.logger.Info("Bridge listener stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ws.stopCh:
			return
		default:
			if ws.conn == nil {
				return
			}

			_, msgBytes, err := ws.conn.ReadMessage()
			if err != nil {
				ws.logger.Error("Bridge read error", zap.Error(err))
				ws.setState(ConnDisconnected)
				ws.scheduleReconnect(ctx)
				return
			}

			ws.handleEvent(msgBytes)
		}
	}
}

func (ws *WebSocket) handleEvent(data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		dataStr := string(data)
		if len(dataStr) > 200 {
			dataStr = dataStr[:200]
		}
		ws.logger.Error("Failed to parse bridge event",
			zap.Error(err),
			zap.String("data", dataStr),
		)
		return
	}

	ws.callbacksMu.RLock()
	callbacks := make([]callbackEntry, len(ws.eventCallbacks))
	copy(callbacks, ws.eventCallbacks)
	ws.callbacksMu.RUnlock()

	for _, entry := range callbacks {
		entry.callback(&event)
	}
}

// SendCommand writes one enforcement command. Writes are serialized because
// the underlying connection does not allow concurrent writers.
func (ws *WebSocket) SendCommand(cmd Command) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	if ws.conn == nil || !ws.IsConnected() {
		return fmt.Errorf("bridge is not connected")
	}
	return ws.conn.WriteJSON(cmd)
}

func (ws *WebSocket) scheduleReconnect(ctx context.Context) {
	ws.reconnectAttempts++

	if ws.reconnectAttempts > ws.maxReconnectAttempts {
		ws.logger.Error("Max reconnect attempts reached",
			zap.Int("attempts", ws.reconnectAttempts),
		)
		ws.setState(ConnFailed)
		return
	}

	ws.setState(ConnReconnecting)

	ws.logger.Info("Scheduling bridge reconnect",
		zap.Int("attempt", ws.reconnectAttempts),
		zap.Int("max", ws.maxReconnectAttempts),
		zap.Duration("delay", ws.reconnectDelay),
	)

	go func() {
		select {
		case <-time.After(ws.reconnectDelay):
			if err := ws.Connect(ctx); err != nil {
				ws.logger.Error("Bridge reconnect failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}()
}

func (ws *WebSocket) OnEvent(callback EventCallback) func() {
	ws.callbacksMu.Lock()
	id := ws.nextCallbackID
	ws.nextCallbackID++
	ws.eventCallbacks = append(ws.eventCallbacks, callbackEntry{
		id:       id,
		callback: callback,
	})
	ws.callbacksMu.Unlock()

	return func() {
		ws.callbacksMu.Lock()
		defer ws.callbacksMu.Unlock()
		for i, entry := range ws.eventCallbacks {
			if entry.id == id {
				ws.eventCallbacks = append(ws.eventCallbacks[:i], ws.eventCallbacks[i+1:]...)
				break
			}
		}
	}
}

func (ws *WebSocket) setState(newState ConnState) {
	ws.stateMu.Lock()
	oldState := ws.state
	ws.state = newState
	ws.stateMu.Unlock()

	if oldState != newState {
		ws.logger.Info("Bridge state changed",
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
		)
	}
}

func (ws *WebSocket) GetState() ConnState {
	ws.stateMu.RLock()
	defer ws.stateMu.RUnlock()
	return ws.state
}

func (ws *WebSocket) IsConnected() bool {
	return ws.GetState() == ConnConnected
}

func (ws *WebSocket) Disconnect() error {
	ws.stopOnce.Do(func() {
		close(ws.stopCh)
	})

	if ws.conn != nil {
		if err := ws.conn.Close(); err != nil {
			ws.logger.Error("Failed to close bridge connection", zap.Error(err))
			return err
		}
		ws.conn = nil
	}

	ws.reconnectAttempts = 0
	ws.setState(ConnDisconnected)
	ws.logger.Info("Player bridge disconnected")

	done := make(chan struct{})
	go func() {
		ws.listenerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		ws.logger.Warn("Timeout waiting for bridge listener to stop")
	}

	return nil
}
