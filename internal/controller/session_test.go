package controller

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatecast/slatecast/internal/device"
	"github.com/slatecast/slatecast/internal/transport"
)

type stubTransport struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubTransport) Open(ctx context.Context) error { return nil }

func (s *stubTransport) Send(ctx context.Context, name string, fields map[string]any) (transport.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, name)
	return transport.Reply{OK: true}, nil
}

func (s *stubTransport) Close() error { return nil }

func (s *stubTransport) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sent := range s.sent {
		if sent == name {
			n++
		}
	}
	return n
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newSessionDevice(sess *Session, name string, tr transport.Transport) *device.Connection {
	return device.NewConnection(device.Options{
		Name:              name,
		Transport:         tr,
		Events:            sess.EventsFor(name),
		StartCommand:      "StartRecord",
		StopCommand:       "StopRecord",
		PingInterval:      time.Hour,
		DisconnectTimeout: time.Hour,
		IdleWait:          time.Millisecond,
	})
}

func TestSessionDrivesAllDevices(t *testing.T) {
	sess := NewSession(quietLogger())

	trA, trB := &stubTransport{}, &stubTransport{}
	sess.Add(newSessionDevice(sess, "a", trA))
	sess.Add(newSessionDevice(sess, "b", trB))

	sess.ConnectAll()
	defer sess.DisconnectAll()
	require.True(t, sess.WaitConnected(2*time.Second))
	assert.Equal(t, 2, sess.ConnectedCount())

	sess.StartTake("INT_KITCHEN", 3, "")
	sess.StopTake()

	// Let the workers drain.
	require.Eventually(t, func() bool {
		return trA.count("StopRecord") == 1 && trB.count("StopRecord") == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, trA.count("StartRecord"))
	assert.Equal(t, 1, trB.count("StartRecord"))
}

func TestSessionSnapshotTracksStatus(t *testing.T) {
	sess := NewSession(quietLogger())
	sess.Add(newSessionDevice(sess, "a", &stubTransport{}))

	states := sess.Snapshot()
	require.Len(t, states, 1)
	assert.Equal(t, "a", states[0].Name)
	assert.Equal(t, device.StatusDisconnected, states[0].Status)
	assert.False(t, states[0].Connected)

	sess.ConnectAll()
	require.True(t, sess.WaitConnected(2*time.Second))

	states = sess.Snapshot()
	assert.Equal(t, device.StatusReady, states[0].Status)
	assert.True(t, states[0].Connected)

	sess.DisconnectAll()
	states = sess.Snapshot()
	assert.False(t, states[0].Connected)
}

func TestSessionWaitConnectedTimesOut(t *testing.T) {
	sess := NewSession(quietLogger())
	sess.Add(newSessionDevice(sess, "a", &stubTransport{}))

	// Never connected: the wait must give up.
	assert.False(t, sess.WaitConnected(100*time.Millisecond))
	assert.Zero(t, sess.ConnectedCount())
}
