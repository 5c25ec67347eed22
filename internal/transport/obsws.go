package transport

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/slatecast/slatecast/internal/util"
)

// obs-websocket v5 opcodes
const (
	obsOpHello           = 0
	obsOpIdentify        = 1
	obsOpIdentified      = 2
	obsOpEvent           = 5
	obsOpRequest         = 6
	obsOpRequestResponse = 7
)

// obsRPCVersion is the obs-websocket RPC version this client speaks.
const obsRPCVersion = 1

// defaultCallTimeout bounds a single request/response round trip.
const defaultCallTimeout = 3 * time.Second

// OBSWebsocket is an RPC-over-websocket transport speaking the obs-websocket
// v5 protocol. Requests are correlated to responses by request ID, and the
// connection must complete the Hello/Identify handshake before the first
// request.
type OBSWebsocket struct {
	URL         string
	Password    string
	CallTimeout time.Duration

	conn *websocket.Conn
}

// NewOBSWebsocket creates a transport for an OBS instance at host:port.
func NewOBSWebsocket(host string, port int, password string) *OBSWebsocket {
	return &OBSWebsocket{
		URL:         fmt.Sprintf("ws://%s:%d", host, port),
		Password:    password,
		CallTimeout: defaultCallTimeout,
	}
}

type obsEnvelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type obsHello struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type obsRequest struct {
	RequestType string         `json:"requestType"`
	RequestID   string         `json:"requestId"`
	RequestData map[string]any `json:"requestData,omitempty"`
}

type obsRequestResponse struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// Open dials the websocket endpoint, completes the Identify handshake and
// probes the server with GetVersion.
func (t *OBSWebsocket) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.CallTimeout}
	conn, _, err := dialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to dial obs websocket %s", t.URL)
	}
	t.conn = conn

	if err := t.identify(); err != nil {
		conn.Close()
		t.conn = nil
		return errors.Wrap(err, "obs identification handshake failed")
	}

	// Version probe confirms the server actually answers requests.
	reply, err := t.Send(ctx, "GetVersion", nil)
	if err != nil {
		conn.Close()
		t.conn = nil
		return err
	}
	if !reply.OK {
		conn.Close()
		t.conn = nil
		return errors.New("obs GetVersion probe rejected")
	}

	util.GetLogger().Debug("obs websocket identified", "url", t.URL)
	return nil
}

// identify consumes the Hello message and answers with Identify, solving the
// SHA-256 authentication challenge when the server demands one.
func (t *OBSWebsocket) identify() error {
	hello, err := t.readOp(obsOpHello)
	if err != nil {
		return err
	}

	var h obsHello
	if err := json.Unmarshal(hello, &h); err != nil {
		return errors.Wrap(err, "malformed hello payload")
	}

	identify := map[string]any{"rpcVersion": obsRPCVersion}
	if h.Authentication != nil {
		identify["authentication"] = obsAuthResponse(
			t.Password, h.Authentication.Salt, h.Authentication.Challenge)
	}

	if err := t.writeOp(obsOpIdentify, identify); err != nil {
		return err
	}

	if _, err := t.readOp(obsOpIdentified); err != nil {
		return err
	}
	return nil
}

// obsAuthResponse computes base64(sha256(base64(sha256(password+salt)) + challenge)).
func obsAuthResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	proof := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(proof[:])
}

// Send issues one request and blocks until the matching response arrives.
// The heartbeat command name "info" is mapped to the cheap GetVersion request.
func (t *OBSWebsocket) Send(ctx context.Context, name string, fields map[string]any) (Reply, error) {
	if t.conn == nil {
		return Reply{}, errors.New("obs websocket is not open")
	}
	if name == "info" {
		name = "GetVersion"
	}

	req := obsRequest{
		RequestType: name,
		RequestID:   uuid.NewString(),
		RequestData: fields,
	}
	if err := t.writeOp(obsOpRequest, req); err != nil {
		return Reply{}, errors.Wrapf(err, "failed to send obs request %s", name)
	}

	deadline := time.Now().Add(t.CallTimeout)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return Reply{}, errors.Wrap(err, "failed to set read deadline")
	}

	// Drain events until our response shows up. Responses for other request
	// IDs cannot occur because the worker serializes calls.
	for {
		var env obsEnvelope
		if err := t.conn.ReadJSON(&env); err != nil {
			return Reply{}, errors.Wrapf(err, "failed waiting for obs response to %s", name)
		}
		if env.Op != obsOpRequestResponse {
			continue
		}
		var resp obsRequestResponse
		if err := json.Unmarshal(env.D, &resp); err != nil {
			return Reply{}, errors.Wrap(err, "malformed obs response payload")
		}
		if resp.RequestID != req.RequestID {
			continue
		}
		if !resp.RequestStatus.Result {
			util.GetLogger().Warn("obs request failed",
				"request", name,
				"code", resp.RequestStatus.Code,
				"comment", resp.RequestStatus.Comment)
		}
		return Reply{OK: resp.RequestStatus.Result, Data: resp.ResponseData}, nil
	}
}

// Close tears down the websocket connection.
func (t *OBSWebsocket) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *OBSWebsocket) writeOp(op int, d any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}
	deadline := time.Now().Add(t.CallTimeout)
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}
	return t.conn.WriteJSON(obsEnvelope{Op: op, D: raw})
}

// readOp reads the next message and requires it to carry the given opcode.
func (t *OBSWebsocket) readOp(op int) (json.RawMessage, error) {
	deadline := time.Now().Add(t.CallTimeout)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "failed to set read deadline")
	}
	var env obsEnvelope
	if err := t.conn.ReadJSON(&env); err != nil {
		return nil, errors.Wrapf(err, "failed to read obs message (want op %d)", op)
	}
	if env.Op != op {
		return nil, errors.Errorf("unexpected obs opcode %d (want %d)", env.Op, op)
	}
	return env.D, nil
}
