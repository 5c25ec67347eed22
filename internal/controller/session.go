// Package controller orchestrates a take-recording session across a set of
// device connections. It is the only consumer of the device event callbacks;
// commands flow down, status flows back up through it.
package controller

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slatecast/slatecast/internal/device"
)

// DeviceState is a point-in-time view of one session device for display.
type DeviceState struct {
	Name      string
	Status    device.Status
	Connected bool
}

// Session fans recording commands out to its devices and aggregates their
// status transitions.
type Session struct {
	log *logrus.Logger

	mu      sync.Mutex
	order   []string
	devices map[string]*device.Connection
	// up tracks which devices have confirmed their transport open.
	up map[string]bool
}

// NewSession creates an empty session.
func NewSession(log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		log:     log,
		devices: make(map[string]*device.Connection),
		up:      make(map[string]bool),
	}
}

// Add registers a connection with the session. Connections are driven in the
// order they were added.
func (s *Session) Add(conn *device.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := conn.Name()
	if _, ok := s.devices[name]; !ok {
		s.order = append(s.order, name)
	}
	s.devices[name] = conn
}

// EventsFor builds the event callbacks the session subscribes to for one
// device. Callbacks run on that device's dispatch worker, so they only log
// and never call back into the connection.
func (s *Session) EventsFor(name string) device.Events {
	entry := s.log.WithField("device", name)
	return device.Events{
		OnConnected: func() {
			s.setUp(name, true)
			entry.Info("device connected")
		},
		OnDisconnected: func() {
			s.setUp(name, false)
			entry.Warn("device disconnected")
		},
		OnRecordStarted: func(timecode string) {
			entry.WithField("timecode", timecode).Info("recording started")
		},
		OnRecordStopped: func(timecode string, paths []string) {
			entry.WithFields(logrus.Fields{
				"timecode": timecode,
				"paths":    paths,
			}).Info("recording stopped")
		},
	}
}

// ConnectAll starts every device's dispatch worker.
func (s *Session) ConnectAll() {
	for _, conn := range s.connections() {
		conn.Connect()
	}
}

// DisconnectAll asks every device worker to exit.
func (s *Session) DisconnectAll() {
	for _, conn := range s.connections() {
		conn.Disconnect()
	}
}

// StartTake triggers recording on every connected device.
func (s *Session) StartTake(slate string, take int, description string) {
	s.log.WithFields(logrus.Fields{"slate": slate, "take": take}).Info("starting take")
	for _, conn := range s.connections() {
		conn.RecordStart(slate, take, description)
	}
}

// StopTake stops recording on every connected device.
func (s *Session) StopTake() {
	s.log.Info("stopping take")
	for _, conn := range s.connections() {
		conn.RecordStop()
	}
}

// ConnectedCount returns how many devices currently accept commands.
func (s *Session) ConnectedCount() int {
	count := 0
	for _, conn := range s.connections() {
		if conn.IsConnected() {
			count++
		}
	}
	return count
}

// WaitConnected blocks until every device has confirmed its transport open
// or the timeout elapses, returning whether all made it.
func (s *Session) WaitConnected(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.upCount() == len(s.connections()) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func (s *Session) setUp(name string, up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up[name] = up
}

func (s *Session) upCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, up := range s.up {
		if up {
			count++
		}
	}
	return count
}

// Snapshot returns the display state of every device in add order.
func (s *Session) Snapshot() []DeviceState {
	states := make([]DeviceState, 0, len(s.order))
	for _, conn := range s.connections() {
		states = append(states, DeviceState{
			Name:      conn.Name(),
			Status:    conn.Status(),
			Connected: conn.IsConnected(),
		})
	}
	return states
}

func (s *Session) connections() []*device.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := make([]*device.Connection, 0, len(s.order))
	for _, name := range s.order {
		conns = append(conns, s.devices[name])
	}
	return conns
}
