package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/go-drift/docmirror/pkg/mirror"
)

const (
	clientBufferSize = 256
	writeTimeout     = 5 * time.Second
)

// EventMessage is one change event as sent on /events.
type EventMessage struct {
	Kind   string `json:"kind"`
	Deep   bool   `json:"deep,omitempty"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Depth  int    `json:"depth"`
	Value  string `json:"value"`
	Text   string `json:"text"`
	Cause  string `json:"cause"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// hub fans events out to websocket clients. publish runs on the document
// loop and never blocks: a client that falls behind is disconnected.
type hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	detach  func()
}

func newHub() *hub {
	return &hub{clients: make(map[chan []byte]struct{})}
}

func (h *hub) publish(ev mirror.Event) error {
	msg := EventMessage{
		Kind:   ev.Kind.String(),
		Deep:   ev.Deep,
		Start:  ev.Start,
		Length: ev.Node.Len(),
		Depth:  ev.Node.Depth(),
		Text:   ev.Node.LocalText(),
		Cause:  ev.Cause.String(),
	}
	if v := ev.Node.Value(); v != nil {
		msg.Value = formatValue(v)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		glog.Errorf("[inspect] encode event: %v", err)
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c <- data:
		default:
			glog.Warningf("[inspect] dropping slow event client")
			delete(h.clients, c)
			close(c)
		}
	}
	return nil
}

func (h *hub) add() chan []byte {
	c := make(chan []byte, clientBufferSize)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) remove(c chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Register before the handshake completes so no event that happens
	// after the client sees the upgrade is missed.
	send := s.hub.add()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.remove(send)
		glog.V(1).Infof("[inspect] upgrade failed: %v", err)
		return
	}
	defer ws.Close()
	defer s.hub.remove(send)

	// The read side only exists to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case data, ok := <-send:
			if !ok {
				ws.SetWriteDeadline(time.Now().Add(writeTimeout))
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				glog.V(1).Infof("[inspect] event write: %v", err)
				return
			}
		}
	}
}
