package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
)

// Rokoko sends capture commands as fire-and-forget UDP datagrams to the
// Rokoko Studio command port. No reply is ever awaited; a send that reaches
// the socket is reported as successful.
type Rokoko struct {
	Addr string

	// processID tags every datagram so Studio can tell controllers apart.
	processID string
	conn      net.Conn
}

// NewRokoko creates a transport for a Rokoko Studio instance at host:port.
func NewRokoko(host string, port int) *Rokoko {
	return &Rokoko{
		Addr:      fmt.Sprintf("%s:%d", host, port),
		processID: uniuri.NewLen(8),
	}
}

// Open binds the UDP socket. There is no handshake.
func (t *Rokoko) Open(ctx context.Context) error {
	conn, err := net.Dial("udp", t.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to open udp socket to %s", t.Addr)
	}
	t.conn = conn
	return nil
}

// Send writes one command datagram. Heartbeat probes ("info") never hit the
// wire: the protocol has no echo, so liveness is asserted locally.
func (t *Rokoko) Send(ctx context.Context, name string, fields map[string]any) (Reply, error) {
	if t.conn == nil {
		return Reply{}, errors.New("udp socket is not open")
	}
	if name == "info" {
		return Reply{OK: true}, nil
	}

	msg := FormatRokokoCommand(name, t.processID, fields)
	if _, err := t.conn.Write([]byte(msg)); err != nil {
		return Reply{}, errors.Wrapf(err, "failed to send %s datagram to %s", name, t.Addr)
	}
	return Reply{OK: true}, nil
}

// Close releases the UDP socket.
func (t *Rokoko) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// FormatRokokoCommand renders the XML-ish datagram body Rokoko Studio expects
// for a capture command.
func FormatRokokoCommand(name, processID string, fields map[string]any) string {
	return fmt.Sprintf(`<%s>`+
		`<TimeCode VALUE=%q/>`+
		`<FrameRate VALUE=%q/>`+
		`<Name VALUE=%q/>`+
		`<SetActiveClip VALUE=%q/>`+
		`<ProcessID VALUE=%q/>`+
		`</%s>`,
		name,
		str(fields["timecode"]),
		str(fields["frame_rate"]),
		str(fields["recording_name"]),
		str(fields["enter_clip_editing"]),
		processID,
		name)
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
