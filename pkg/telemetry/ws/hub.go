package ws

import (
	"container/list"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/mmwave.go/pkg/radar"
)

// Hub broadcasts sensor readings to connected websocket clients.
// Each reading is sent as one JSON text message.
type Hub struct {
	lock   sync.Mutex
	conns  *list.List
	closed bool
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{conns: list.New()}
}

// Handler returns the http.Handler accepting websocket clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Broadcast sends the reading to all connected clients. A client
// whose send fails is dropped.
func (h *Hub) Broadcast(reading *radar.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	for elm := h.conns.Front(); elm != nil; {
		conn := elm.Value.(*websocket.Conn)
		next := elm.Next()
		if err := websocket.Message.Send(conn, string(payload)); err != nil {
			glog.V(2).Infof("drop client %s: %v", conn.Request().RemoteAddr, err)
			h.conns.Remove(elm)
			conn.Close()
		}
		elm = next
	}
	return nil
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.conns.Len()
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.closed = true
	for elm := h.conns.Front(); elm != nil; elm = elm.Next() {
		elm.Value.(*websocket.Conn).Close()
	}
	h.conns.Init()
	return nil
}

func (h *Hub) serve(conn *websocket.Conn) {
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		conn.Close()
		return
	}
	elm := h.conns.PushBack(conn)
	h.lock.Unlock()
	glog.V(2).Infof("client %s connected", conn.Request().RemoteAddr)

	// Drain until the client goes away. Inbound payloads are ignored.
	var msg []byte
	for {
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			break
		}
	}

	h.lock.Lock()
	if !h.closed {
		h.conns.Remove(elm)
	}
	h.lock.Unlock()
	conn.Close()
}
