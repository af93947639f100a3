package serve

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"motioncam/video"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialUpdates(t *testing.T, m *MetaUpdater) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return m.clientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestMetaUpdaterRecordingUpdates(t *testing.T) {
	m := NewMetaUpdater()
	conn := dialUpdates(t, m)

	r := &video.Record{Identifier: "20261017_09h00m00s", Score: 2304}
	m.StartRecording(r)
	m.StopRecording(r)
	m.FilesystemUpdated()

	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, Update{Kind: UpdateStarted, Identifier: "20261017_09h00m00s", Score: 2304}, u)

	u = Update{}
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, UpdateStopped, u.Kind)

	u = Update{}
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, Update{Kind: UpdateIndex}, u)
}

func TestMetaUpdaterManualFlag(t *testing.T) {
	m := NewMetaUpdater()
	conn := dialUpdates(t, m)

	m.StartRecording(&video.Record{Identifier: "20261017_09h00m00s", Manual: true})

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Kind":"started","Identifier":"20261017_09h00m00s","Manual":true}`, string(msg))
}

func TestMetaUpdaterForgetsClosedClients(t *testing.T) {
	m := NewMetaUpdater()
	conn := dialUpdates(t, m)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return m.clientCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	// No clients; must not block.
	m.FilesystemUpdated()
}

func TestMetaUpdaterNoClients(t *testing.T) {
	m := NewMetaUpdater()
	m.FilesystemUpdated()
	m.StartRecording(&video.Record{Identifier: "x"})
	assert.Zero(t, m.clientCount())
}
