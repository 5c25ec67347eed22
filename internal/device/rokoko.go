package device

import (
	"fmt"

	"github.com/slatecast/slatecast/config"
	"github.com/slatecast/slatecast/internal/transport"
)

// Rokoko command names, doubling as reply routing keys.
const (
	RokokoStartCommand = "CaptureStart"
	RokokoStopCommand  = "CaptureStop"
)

// NewRokoko creates a connection to a Rokoko Studio instance driven over
// fire-and-forget UDP datagrams. A zero port falls back to the settings
// store.
func NewRokoko(name, address string, port int, events Events) *Connection {
	if address == "" {
		address = "localhost"
	}
	if port == 0 {
		port = config.GetRokokoPort()
	}
	tr := transport.NewRokoko(address, port)

	payload := func(cmdName string, take TakeInfo) map[string]any {
		if cmdName == EchoCommandName {
			return nil
		}
		return map[string]any{
			"command_name":       cmdName,
			"timecode":           take.Timecode,
			"frame_rate":         take.FrameRate,
			"recording_name":     fmt.Sprintf("%s %d", take.Slate, take.Take),
			"enter_clip_editing": config.GetRokokoEnterClipEditing(),
		}
	}

	return NewConnection(Options{
		Name:         name,
		Transport:    tr,
		Events:       events,
		StartCommand:      RokokoStartCommand,
		StopCommand:       RokokoStopCommand,
		Payload:           payload,
		PingInterval:      config.GetPingInterval(),
		DisconnectTimeout: config.GetDisconnectTimeout(),
	})
}
