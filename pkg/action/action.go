package action

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/correlator"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// Codec serializes opaque structured-data records (dashboards, widgets,
// devices, tags, apps, reports and the rest of the domain model catalogue)
// into the single JSON field most non-realtime commands carry. Callers may
// supply an alternative implementation; the default is encoding/json,
// matching the real server's use of JSON for these payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Action is a fully-built outbound request: the opcode, its NUL-joined or
// JSON body, and which correlator Kind its reply resolves as.
type Action struct {
	Command wire.Command
	Body    []byte
	Kind    correlator.Kind
}

// joinFields concatenates UTF-8 fields with a single NUL separator, the
// text layout the server expects for most command bodies.
func joinFields(fields ...string) []byte {
	parts := make([][]byte, len(fields))
	for i, f := range fields {
		parts[i] = []byte(f)
	}
	return bytes.Join(parts, []byte{0})
}

// Login builds a LOGIN action. passwordDigest must already be the digest from
// pkg/auth.HashPassword, not the plaintext password.
func Login(email, passwordDigest, appName string) Action {
	return Action{
		Command: wire.LOGIN,
		Body:    joinFields(email, passwordDigest, "iOS", "1.0.0", appName),
		Kind:    correlator.ResponseOnly,
	}
}

// ShareLogin builds a SHARE_LOGIN action for a dashboard share token.
func ShareLogin(token, appName string) Action {
	return Action{
		Command: wire.SHARE_LOGIN,
		Body:    joinFields(token, appName),
		Kind:    correlator.ResponseOnly,
	}
}

// Register builds a REGISTER action.
func Register(email, passwordDigest, appName string) Action {
	return Action{
		Command: wire.REGISTER,
		Body:    joinFields(email, passwordDigest, appName),
		Kind:    correlator.ResponseOnly,
	}
}

// RefreshToken builds a REFRESH_TOKEN action.
func RefreshToken() Action {
	return Action{Command: wire.REFRESH_TOKEN, Kind: correlator.ResponseOnly}
}

// Logout builds a LOGOUT action.
func Logout() Action {
	return Action{Command: wire.LOGOUT, Kind: correlator.ResponseOnly}
}

// Ping builds the keep-alive PING action.
func Ping() Action {
	return Action{Command: wire.PING, Kind: correlator.ResponseOnly}
}

// ActivateDashboard builds an ACTIVATE_DASHBOARD action.
func ActivateDashboard(dashID int) Action {
	return Action{
		Command: wire.ACTIVATE_DASHBOARD,
		Body:    []byte(fmt.Sprintf("%d", dashID)),
		Kind:    correlator.ResponseOnly,
	}
}

// DeactivateDashboard builds a DEACTIVATE_DASHBOARD action.
func DeactivateDashboard(dashID int) Action {
	return Action{
		Command: wire.DEACTIVATE_DASHBOARD,
		Body:    []byte(fmt.Sprintf("%d", dashID)),
		Kind:    correlator.ResponseOnly,
	}
}

// Hardware builds a HARDWARE action addressed to a specific board on a
// dashboard, e.g. a virtual-pin write: Hardware(1, 100, "vw", "4", "128").
func Hardware(dashID, deviceID int, cmd string, args ...string) Action {
	body := append([]string{cmd}, args...)
	return Action{
		Command: wire.HARDWARE,
		Body:    joinFields(fmt.Sprintf("%d-%d", dashID, deviceID), string(joinFields(body...))),
		Kind:    correlator.ResponseOnly,
	}
}

// SetWidgetProperty builds a SET_WIDGET_PROPERTY action.
func SetWidgetProperty(dashID, deviceID int, pin, property, value string) Action {
	return Action{
		Command: wire.SET_WIDGET_PROPERTY,
		Body:    joinFields(fmt.Sprintf("%d-%d", dashID, deviceID), pin, property, value),
		Kind:    correlator.ResponseOnly,
	}
}

// LoadProfileGzipped builds a LOAD_PROFILE_GZIPPED action. Its reply is a
// command-shaped frame carrying (possibly compressed) profile bytes sharing
// this request's id, not a RESPONSE — hence DataResponse.
func LoadProfileGzipped() Action {
	return Action{Command: wire.LOAD_PROFILE_GZIPPED, Kind: correlator.DataResponse}
}

// GetDevices builds a GET_DEVICES action; its reply is a GET_DEVICES-shaped
// frame carrying a JSON array, not a bare RESPONSE.
func GetDevices() Action {
	return Action{Command: wire.GET_DEVICES, Kind: correlator.DataResponse}
}

// record builds an action that carries a structured domain record as a
// single JSON field, for the many CRUD-style commands (dashboards, widgets,
// devices, tags, apps, reports, ...) whose body is "just JSON".
func record(cmd wire.Command, codec Codec, v any) (Action, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	body, err := codec.Marshal(v)
	if err != nil {
		return Action{}, fmt.Errorf("%w: %v", blynkerr.ErrEncode, err)
	}
	return Action{Command: cmd, Body: body, Kind: correlator.ResponseOnly}, nil
}

// CreateDash builds a CREATE_DASH action from an opaque dashboard record.
func CreateDash(codec Codec, dashboard any) (Action, error) {
	return record(wire.CREATE_DASH, codec, dashboard)
}

// UpdateDash builds an UPDATE_DASH action from an opaque dashboard record.
func UpdateDash(codec Codec, dashboard any) (Action, error) {
	return record(wire.UPDATE_DASH, codec, dashboard)
}

// DeleteDash builds a DELETE_DASH action.
func DeleteDash(dashID int) Action {
	return Action{
		Command: wire.DELETE_DASH,
		Body:    []byte(fmt.Sprintf("%d", dashID)),
		Kind:    correlator.ResponseOnly,
	}
}

// CreateWidget builds a CREATE_WIDGET action from an opaque widget record.
func CreateWidget(codec Codec, dashID int, widget any) (Action, error) {
	a, err := record(wire.CREATE_WIDGET, codec, widget)
	if err != nil {
		return Action{}, err
	}
	a.Body = joinFields(fmt.Sprintf("%d", dashID), string(a.Body))
	return a, nil
}

// UpdateWidget builds an UPDATE_WIDGET action from an opaque widget record.
func UpdateWidget(codec Codec, dashID int, widget any) (Action, error) {
	a, err := record(wire.UPDATE_WIDGET, codec, widget)
	if err != nil {
		return Action{}, err
	}
	a.Body = joinFields(fmt.Sprintf("%d", dashID), string(a.Body))
	return a, nil
}

// DeleteWidget builds a DELETE_WIDGET action.
func DeleteWidget(dashID, widgetID int) Action {
	return Action{
		Command: wire.DELETE_WIDGET,
		Body:    joinFields(fmt.Sprintf("%d", dashID), fmt.Sprintf("%d", widgetID)),
		Kind:    correlator.ResponseOnly,
	}
}

// CreateDevice builds a CREATE_DEVICE action from an opaque device record.
func CreateDevice(codec Codec, dashID int, device any) (Action, error) {
	a, err := record(wire.CREATE_DEVICE, codec, device)
	if err != nil {
		return Action{}, err
	}
	a.Body = joinFields(fmt.Sprintf("%d", dashID), string(a.Body))
	return a, nil
}

// DeleteDevice builds a DELETE_DEVICE action.
func DeleteDevice(dashID, deviceID int) Action {
	return Action{
		Command: wire.DELETE_DEVICE,
		Body:    joinFields(fmt.Sprintf("%d", dashID), fmt.Sprintf("%d", deviceID)),
		Kind:    correlator.ResponseOnly,
	}
}
