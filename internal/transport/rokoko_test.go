package transport

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) (net.PacketConn, string, int) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	host, portStr, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return pc, host, port
}

func readDatagram(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestRokokoSendsCaptureDatagram(t *testing.T) {
	pc, host, port := listenUDP(t)

	tr := NewRokoko(host, port)
	require.NoError(t, tr.Open(context.Background()))
	defer tr.Close()

	reply, err := tr.Send(context.Background(), "CaptureStart", map[string]any{
		"timecode":           "00:00:00:00",
		"frame_rate":         "30",
		"recording_name":     "INT_KITCHEN 3",
		"enter_clip_editing": false,
	})
	require.NoError(t, err)
	assert.True(t, reply.OK)

	msg := readDatagram(t, pc)
	assert.Contains(t, msg, "<CaptureStart>")
	assert.Contains(t, msg, "</CaptureStart>")
	assert.Contains(t, msg, `<TimeCode VALUE="00:00:00:00"/>`)
	assert.Contains(t, msg, `<FrameRate VALUE="30"/>`)
	assert.Contains(t, msg, `<Name VALUE="INT_KITCHEN 3"/>`)
	assert.Contains(t, msg, `<SetActiveClip VALUE="false"/>`)
	assert.Contains(t, msg, "<ProcessID VALUE=")
}

func TestRokokoEchoNeverHitsTheWire(t *testing.T) {
	pc, host, port := listenUDP(t)

	tr := NewRokoko(host, port)
	require.NoError(t, tr.Open(context.Background()))
	defer tr.Close()

	reply, err := tr.Send(context.Background(), "info", nil)
	require.NoError(t, err)
	assert.True(t, reply.OK)

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	buf := make([]byte, 64)
	_, _, err = pc.ReadFrom(buf)
	assert.Error(t, err) // deadline exceeded: nothing was sent
}

func TestRokokoSendRequiresOpen(t *testing.T) {
	tr := NewRokoko("127.0.0.1", 14047)
	_, err := tr.Send(context.Background(), "CaptureStart", nil)
	assert.Error(t, err)
}

func TestFormatRokokoCommand(t *testing.T) {
	msg := FormatRokokoCommand("CaptureStop", "abc12345", map[string]any{
		"timecode":           "00:00:00:00",
		"frame_rate":         "30",
		"recording_name":     "slate 1",
		"enter_clip_editing": true,
	})

	assert.Equal(t,
		`<CaptureStop>`+
			`<TimeCode VALUE="00:00:00:00"/>`+
			`<FrameRate VALUE="30"/>`+
			`<Name VALUE="slate 1"/>`+
			`<SetActiveClip VALUE="true"/>`+
			`<ProcessID VALUE="abc12345"/>`+
			`</CaptureStop>`,
		msg)
}
