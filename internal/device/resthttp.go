package device

import (
	"github.com/slatecast/slatecast/config"
	"github.com/slatecast/slatecast/internal/transport"
)

// REST capture device command names. Each is also the endpoint path the
// command POSTs to.
const (
	RESTStartCommand = "recording/start"
	RESTStopCommand  = "recording/stop"
)

// NewRESTCapture creates a connection to a capture device exposing the
// JSON-over-HTTP command API. A zero port or empty API key falls back to the
// settings store.
func NewRESTCapture(name, address string, port int, apiKey string, events Events) *Connection {
	if address == "" {
		address = "localhost"
	}
	if port == 0 {
		port = config.GetHTTPPort()
	}
	if apiKey == "" {
		apiKey = config.GetHTTPAPIKey()
	}
	tr := transport.NewRESTHTTP(address, port, apiKey)

	payload := func(cmdName string, take TakeInfo) map[string]any {
		switch cmdName {
		case RESTStartCommand:
			return map[string]any{
				"slate":       take.Slate,
				"take":        take.Take,
				"description": take.Description,
				"timecode":    take.Timecode,
				"frame_rate":  take.FrameRate,
			}
		case RESTStopCommand:
			// Read at command-build time so a settings change between
			// takes is honored.
			return map[string]any{
				"return_to_live": config.GetHTTPReturnToLive(),
			}
		default:
			return nil
		}
	}

	return NewConnection(Options{
		Name:         name,
		Transport:    tr,
		Events:       events,
		StartCommand:      RESTStartCommand,
		StopCommand:       RESTStopCommand,
		Payload:           payload,
		PingInterval:      config.GetPingInterval(),
		DisconnectTimeout: config.GetDisconnectTimeout(),
	})
}
