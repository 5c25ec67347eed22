// Package device implements the queued-command dispatch and liveness
// supervision engine shared by every capture device variant. One Connection
// owns one transport and one background dispatch worker; the controlling
// goroutine only enqueues record commands and reads status.
package device

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slatecast/slatecast/internal/transport"
	"github.com/slatecast/slatecast/internal/util"
)

// Status is the connection lifecycle state exposed to the controller.
type Status int32

const (
	// StatusDisconnected means no worker is running, either because the
	// connection was never opened or the controller shut it down.
	StatusDisconnected Status = iota
	// StatusReady means the worker is running and the device is reachable.
	StatusReady
	// StatusClosed means the connection died on a transport failure or
	// liveness timeout.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Liveness and scheduling defaults. A device that produces no confirmed
// activity for DefaultDisconnectTimeout is declared dead; an idle connection
// probes it every DefaultPingInterval.
const (
	DefaultPingInterval      = 1 * time.Second
	DefaultDisconnectTimeout = 3 * time.Second
	defaultIdleWait          = 10 * time.Millisecond
)

// fixedTimecode is reported on start/stop confirmations. None of the
// supported transports expose a device clock, so every confirmation carries
// the zero timecode.
const fixedTimecode = "00:00:00:00"

// fixedFrameRate is embedded in command payloads that want one.
const fixedFrameRate = "30"

// Events carries the status callbacks a controller subscribes to. All
// callbacks are optional and are invoked from the dispatch worker goroutine.
type Events struct {
	OnConnected    func()
	OnDisconnected func()
	// OnRecordStarted fires when the device confirms recording began.
	OnRecordStarted func(timecode string)
	// OnRecordStopped fires when the device confirms recording ended. The
	// path list is always empty: none of the supported transports report
	// output files.
	OnRecordStopped func(timecode string, paths []string)
}

// TakeInfo is the recording metadata embedded into command payloads at send
// time, so the last value set before the worker drains the queue wins.
type TakeInfo struct {
	Slate       string
	Take        int
	Description string
	Timecode    string
	FrameRate   string
}

// PayloadFunc builds the protocol-specific fields for a command at send
// time. It may return nil for commands that carry no payload.
type PayloadFunc func(cmdName string, take TakeInfo) map[string]any

// Options configures a Connection. Transport, StartCommand and StopCommand
// are required; everything else has defaults.
type Options struct {
	Name      string
	Transport transport.Transport
	Events    Events

	StartCommand string
	StopCommand  string
	Payload      PayloadFunc

	PingInterval      time.Duration
	DisconnectTimeout time.Duration
	IdleWait          time.Duration
	QueueCapacity     int
}

// Connection supervises one device: it serializes outbound commands through
// a single dispatch worker, probes liveness while idle, and reports state
// transitions through Events.
type Connection struct {
	name      string
	transport transport.Transport
	events    Events
	router    *Router
	queue     *CommandQueue

	startCommand string
	stopCommand  string
	payload      PayloadFunc

	pingInterval      time.Duration
	disconnectTimeout time.Duration
	idleWait          time.Duration

	// responseStatus is the connectivity sentinel: >0 connected, 0 last
	// operation failed, <0 administratively disconnected.
	responseStatus atomic.Int32
	status         atomic.Int32
	lastActivity   atomic.Int64 // unix nanoseconds
	awaitingEcho   atomic.Bool

	triggerStart atomic.Bool
	triggerStop  atomic.Bool

	mu   sync.Mutex // guards take metadata
	take TakeInfo

	wg sync.WaitGroup
}

// NewConnection creates a connection for one device. The worker is not
// started until Connect.
func NewConnection(opts Options) *Connection {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.DisconnectTimeout <= 0 {
		opts.DisconnectTimeout = DefaultDisconnectTimeout
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = defaultIdleWait
	}

	c := &Connection{
		name:              opts.Name,
		transport:         opts.Transport,
		events:            opts.Events,
		router:            NewRouter(),
		queue:             NewCommandQueue(opts.QueueCapacity),
		startCommand:      opts.StartCommand,
		stopCommand:       opts.StopCommand,
		payload:           opts.Payload,
		pingInterval:      opts.PingInterval,
		disconnectTimeout: opts.DisconnectTimeout,
		idleWait:          opts.IdleWait,
	}
	c.triggerStart.Store(true)
	c.triggerStop.Store(true)
	c.take = TakeInfo{Slate: "slate", Take: 1, Timecode: fixedTimecode, FrameRate: fixedFrameRate}

	// The handler table is fixed per device: heartbeat ack plus the
	// start/stop confirmations. Every command this connection can ever
	// enqueue must appear here.
	c.router.Register(EchoCommandName, c.onEchoReply)
	c.router.Register(c.startCommand, c.onRecordingStarted)
	c.router.Register(c.stopCommand, c.onRecordingStopped)

	return c
}

// Name returns the device name.
func (c *Connection) Name() string { return c.name }

// IsConnected reports whether commands may currently be enqueued.
func (c *Connection) IsConnected() bool {
	return c.responseStatus.Load() > 0
}

// Status returns the lifecycle state.
func (c *Connection) Status() Status {
	return Status(c.status.Load())
}

// SetTriggerStart controls whether RecordStart sends anything.
func (c *Connection) SetTriggerStart(enabled bool) { c.triggerStart.Store(enabled) }

// SetTriggerStop controls whether RecordStop sends anything.
func (c *Connection) SetTriggerStop(enabled bool) { c.triggerStop.Store(enabled) }

// Connect starts the dispatch worker. It is idempotent: a connected device
// is left alone. A fresh call after a failure resets the queue and liveness
// clock and spawns a new worker.
func (c *Connection) Connect() {
	if c.IsConnected() {
		return
	}
	// A previous worker may still be winding down; let it release the
	// transport before reusing it.
	c.wg.Wait()

	c.queue.Reset()
	c.awaitingEcho.Store(false)
	c.touch()
	c.responseStatus.Store(1)
	c.status.Store(int32(StatusReady))

	c.wg.Add(1)
	go c.run()
}

// Disconnect asks the worker to exit. Shutdown is cooperative: the worker
// notices the flipped sentinel on its next loop iteration and closes the
// transport itself. No disconnect notification fires for an administrative
// disconnect.
func (c *Connection) Disconnect() {
	c.responseStatus.Store(-1)
	c.status.Store(int32(StatusDisconnected))
}

// RecordStart stores the take metadata and enqueues the start command. It is
// a no-op while disconnected or when start triggering is disabled.
func (c *Connection) RecordStart(slate string, take int, description string) {
	if !c.IsConnected() || !c.triggerStart.Load() {
		return
	}

	c.mu.Lock()
	c.take.Slate = slate
	c.take.Take = take
	c.take.Description = description
	c.mu.Unlock()

	c.enqueue(Command{Name: c.startCommand})
}

// RecordStop enqueues the stop command. It is a no-op while disconnected or
// when stop triggering is disabled.
func (c *Connection) RecordStop() {
	if !c.IsConnected() || !c.triggerStop.Load() {
		return
	}
	c.enqueue(Command{Name: c.stopCommand})
}

func (c *Connection) enqueue(cmd Command) {
	if !c.router.Handles(cmd.Name) {
		util.GetLogger().Error("refusing command with no reply handler",
			"device", c.name, "command", cmd.Name)
		return
	}
	if err := c.queue.Enqueue(cmd); err != nil {
		util.GetLogger().Warn("dropping command",
			"device", c.name, "command", cmd.Name, "error", err)
	}
}

// sendEchoRequest enqueues a heartbeat probe unless one is already
// outstanding or real commands are pending. Heartbeats never preempt real
// commands and never double up.
func (c *Connection) sendEchoRequest() {
	if c.awaitingEcho.Load() {
		return
	}
	if c.queue.Len() > 0 {
		return
	}
	c.awaitingEcho.Store(true)
	if err := c.queue.Enqueue(Command{Name: EchoCommandName}); err != nil {
		c.awaitingEcho.Store(false)
	}
}

// takeInfo snapshots the current recording metadata.
func (c *Connection) takeInfo() TakeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.take
}

// touch records confirmed inbound activity.
func (c *Connection) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Connection) sinceActivity() time.Duration {
	return time.Duration(time.Now().UnixNano() - c.lastActivity.Load())
}

// run is the dispatch worker: it owns the transport from Open to Close and
// is the only goroutine that touches it.
func (c *Connection) run() {
	defer c.wg.Done()

	logger := util.GetLogger()
	ctx := context.Background()

	if err := c.transport.Open(ctx); err != nil {
		logger.Warn("connection request failed", "device", c.name, "error", err)
		c.responseStatus.Store(0)
		c.fail()
		return
	}

	// The open connection itself counts as activity.
	c.touch()
	if c.events.OnConnected != nil {
		c.events.OnConnected()
	}

	idle := time.NewTimer(c.idleWait)
	defer idle.Stop()

	for c.IsConnected() {
		if cmd, ok := c.queue.Dequeue(); ok {
			if !c.dispatch(ctx, cmd) {
				break
			}
		} else {
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(c.idleWait)
			<-idle.C
		}

		elapsed := c.sinceActivity()
		if elapsed > c.disconnectTimeout {
			logger.Warn("disconnecting due to connection timeout",
				"device", c.name, "elapsed", elapsed)
			c.responseStatus.Store(0)
			c.fail()
			break
		} else if elapsed > c.pingInterval {
			c.sendEchoRequest()
		}
	}

	if err := c.transport.Close(); err != nil {
		logger.Debug("transport close", "device", c.name, "error", err)
	}
}

// dispatch sends one command and routes its reply. It returns false when the
// connection must die.
func (c *Connection) dispatch(ctx context.Context, cmd Command) bool {
	logger := util.GetLogger()

	fields := cmd.Fields
	if fields == nil && c.payload != nil {
		// Metadata is embedded at send time, not enqueue time, so the
		// last-set slate/take wins.
		fields = c.payload(cmd.Name, c.takeInfo())
	}

	reply, err := c.transport.Send(ctx, cmd.Name, fields)
	if err != nil || !reply.OK {
		logger.Warn("disconnecting due to send failure",
			"device", c.name, "command", cmd.Name, "error", err)
		c.responseStatus.Store(0)
		c.fail()
		return false
	}

	c.responseStatus.Store(200)
	c.touch()
	if err := c.router.Route(cmd.Name, reply); err != nil {
		// Protocol contract violation: the command table and handler table
		// disagree. Kill the connection loudly.
		logger.Error("protocol violation", "device", c.name, "error", err)
		c.responseStatus.Store(0)
		c.fail()
		return false
	}
	return true
}

// fail marks the connection closed and notifies the controller exactly once
// per worker lifetime. Only the worker goroutine calls it.
func (c *Connection) fail() {
	if Status(c.status.Swap(int32(StatusClosed))) == StatusClosed {
		return
	}
	if c.events.OnDisconnected != nil {
		c.events.OnDisconnected()
	}
}

func (c *Connection) onEchoReply(transport.Reply) {
	c.awaitingEcho.Store(false)
}

func (c *Connection) onRecordingStarted(transport.Reply) {
	if c.events.OnRecordStarted != nil {
		c.events.OnRecordStarted(fixedTimecode)
	}
}

func (c *Connection) onRecordingStopped(transport.Reply) {
	if c.events.OnRecordStopped != nil {
		// Output paths are not retrievable over any supported transport.
		c.events.OnRecordStopped(fixedTimecode, nil)
	}
}
