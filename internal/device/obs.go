package device

import (
	"github.com/slatecast/slatecast/config"
	"github.com/slatecast/slatecast/internal/transport"
)

// OBS command names, doubling as reply routing keys.
const (
	OBSStartCommand = "StartRecord"
	OBSStopCommand  = "StopRecord"
)

// NewOBS creates a connection to an OBS instance reachable over the
// obs-websocket RPC protocol. A zero port or empty password falls back to the
// settings store.
func NewOBS(name, address string, port int, password string, events Events) *Connection {
	if address == "" {
		address = "localhost"
	}
	if port == 0 {
		port = config.GetOBSPort()
	}
	if password == "" {
		password = config.GetOBSPassword()
	}
	tr := transport.NewOBSWebsocket(address, port, password)

	return NewConnection(Options{
		Name:         name,
		Transport:    tr,
		Events:       events,
		StartCommand: OBSStartCommand,
		StopCommand:  OBSStopCommand,
		// OBS request types carry no payload; the recording name is
		// whatever the OBS profile is configured to produce.
		PingInterval:      config.GetPingInterval(),
		DisconnectTimeout: config.GetDisconnectTimeout(),
	})
}
