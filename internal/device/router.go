package device

import (
	"github.com/pkg/errors"

	"github.com/slatecast/slatecast/internal/transport"
	"github.com/slatecast/slatecast/internal/util"
)

// EchoCommandName is the heartbeat probe routing key shared by all device
// variants.
const EchoCommandName = "info"

// HandlerFunc interprets the reply to one command kind and updates device
// state.
type HandlerFunc func(reply transport.Reply)

// ErrUnhandledCommand reports a reply whose command name has no registered
// handler. It marks a code-level mismatch between the commands a variant
// enqueues and the handlers it registers, so the dispatch worker treats it
// as fatal to the connection rather than dropping the reply.
var ErrUnhandledCommand = errors.New("no handler registered for command")

// Router maps a command name to the logic that interprets its reply. Each
// device variant registers a fixed table at construction time: the echo
// handler plus its start/stop confirmation handlers.
type Router struct {
	handlers map[string]HandlerFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a command name, replacing any previous binding.
func (r *Router) Register(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Handles reports whether a command name has a registered handler. Connection
// code checks this before enqueueing so the mismatch surfaces at the send
// site, not when the reply arrives.
func (r *Router) Handles(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Route dispatches a reply to the handler registered for name. An
// unregistered name returns ErrUnhandledCommand.
func (r *Router) Route(name string, reply transport.Reply) error {
	fn, ok := r.handlers[name]
	if !ok {
		util.GetLogger().Error("no response handler for command", "command", name)
		return errors.Wrap(ErrUnhandledCommand, name)
	}
	fn(reply)
	return nil
}
