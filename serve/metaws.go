package serve

import (
	"net/http"
	"sync"
	"time"

	"motioncam/video"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second

	// Updates queued per client before it is considered stuck.
	clientBacklog = 8
)

const (
	UpdateIndex   = "index"
	UpdateStarted = "started"
	UpdateStopped = "stopped"
)

// Update is sent to websocket clients as JSON.
type Update struct {
	Kind       string
	Identifier string `json:",omitempty"`
	Score      int    `json:",omitempty"`
	Manual     bool   `json:",omitempty"`
}

// MetaUpdater pushes recording starts, stops and index changes to websocket
// clients so the event list can refresh itself.
type MetaUpdater struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan Update]bool
}

func NewMetaUpdater() *MetaUpdater {
	return &MetaUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[chan Update]bool),
	}
}

func (m *MetaUpdater) broadcast(u Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		select {
		case c <- u:
		default:
			log.Debugf("Dropping %v update for slow client", u.Kind)
		}
	}
}

func (m *MetaUpdater) clientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *MetaUpdater) FilesystemUpdated() {
	m.broadcast(Update{Kind: UpdateIndex})
}

func (m *MetaUpdater) StartRecording(r *video.Record) {
	m.broadcast(Update{Kind: UpdateStarted, Identifier: r.Identifier, Score: r.Score, Manual: r.Manual})
}

func (m *MetaUpdater) StopRecording(r *video.Record) {
	m.broadcast(Update{Kind: UpdateStopped, Identifier: r.Identifier, Score: r.Score, Manual: r.Manual})
}

func (m *MetaUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for update stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *MetaUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to events update socket")

	c := make(chan Update, clientBacklog)
	m.mu.Lock()
	m.clients[c] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
		ws.Close()
		clog.Info("disconnected from events update socket")
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	// Incoming messages are ignored, but reading processes control frames
	// and notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case u := <-c:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(u); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
