package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"text-palette/internal/model"
)

// DeviceHub fans encoded palettes out to LED devices, keyed by device id.
// The last envelope per device is replayed to each newly registered client.
type DeviceHub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	last    map[string]model.DeviceEnvelope
}

func NewDeviceHub() *DeviceHub {
	return &DeviceHub{
		clients: map[string]map[*Client]struct{}{},
		last:    map[string]model.DeviceEnvelope{},
	}
}

func (h *DeviceHub) Register(deviceID string, conn *websocket.Conn) *Client {
	var c *Client
	c = NewClientWithClose(conn, func() { h.Unregister(deviceID, c) })
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[deviceID]; !ok {
		h.clients[deviceID] = map[*Client]struct{}{}
	}
	h.clients[deviceID][c] = struct{}{}
	if env, ok := h.last[deviceID]; ok {
		if b, err := envelopeMessage(env); err == nil {
			c.send <- b
		}
	}
	return c
}

func (h *DeviceHub) Unregister(deviceID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.clients[deviceID]; ok {
		if _, exist := m[c]; exist {
			delete(m, c)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.clients, deviceID)
		}
	}
}

func (h *DeviceHub) Connected(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[deviceID])
}

func (h *DeviceHub) Last(deviceID string) *model.DeviceEnvelope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	env, ok := h.last[deviceID]
	if !ok {
		return nil
	}
	return &env
}

// PushEnvelope records env and sends it to every connected client of the device.
// Slow clients are dropped.
func (h *DeviceHub) PushEnvelope(env model.DeviceEnvelope) {
	b, err := envelopeMessage(env)
	if err != nil {
		log.Printf("marshal device envelope: device=%s err=%v", env.DeviceID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[env.DeviceID] = env
	clients := h.clients[env.DeviceID]
	for c := range clients {
		select {
		case c.send <- b:
		default:
			delete(clients, c)
			close(c.send)
		}
	}
	if len(clients) == 0 {
		delete(h.clients, env.DeviceID)
	}
}

func envelopeMessage(env model.DeviceEnvelope) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type":       "device.envelope",
		"created_at": env.CreatedAt,
		"payload":    env,
	})
}
