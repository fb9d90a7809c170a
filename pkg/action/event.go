package action

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/event"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

// DecodeEvent turns an inbound command frame that the correlator did not
// claim into a domain event, performing the text-layer parsing that
// HARDWARE/HARDWARE_SYNC/APP_SYNC/DEVICE_OFFLINE bodies require (NUL-joined
// fields, "dashId-deviceId" tuples, "vw"/"dw"/"aw" pin-write verbs).
//
// Frames whose opcode has no specific mapping produce a KindRaw event
// rather than being dropped, so observers can still see traffic the
// adapter does not yet understand.
func DecodeEvent(f wire.Frame) event.Event {
	now := time.Now()

	switch f.Command {
	case wire.HARDWARE:
		if hw, ok := parseHardwareWrite(f.Payload); ok {
			return event.Event{Kind: event.KindHardwareWrite, Timestamp: now, HardwareWrite: &hw}
		}
	case wire.HARDWARE_SYNC:
		return event.Event{Kind: event.KindHardwareSync, Timestamp: now, Raw: &event.Raw{Command: byte(f.Command), Payload: f.Payload}}
	case wire.APP_SYNC:
		return event.Event{Kind: event.KindAppSync, Timestamp: now, Raw: &event.Raw{Command: byte(f.Command), Payload: f.Payload}}
	case wire.DEVICE_OFFLINE:
		if off, ok := parseDeviceOffline(f.Payload); ok {
			return event.Event{Kind: event.KindDeviceOffline, Timestamp: now, DeviceOffline: &off}
		}
	}

	return event.Event{Kind: event.KindRaw, Timestamp: now, Raw: &event.Raw{Command: byte(f.Command), Payload: f.Payload}}
}

// DecodeUnsolicitedResponse turns a RESPONSE frame the correlator could not
// match to any pending request into a domain event.
func DecodeUnsolicitedResponse(id uint16, code wire.Status) event.Event {
	return event.Event{
		Kind:      event.KindUnsolicitedResponse,
		Timestamp: time.Now(),
		UnsolicitedResponse: &event.UnsolicitedResponse{
			MessageID: id,
			Code:      uint32(code),
		},
	}
}

// parseHardwareWrite parses a HARDWARE frame body of the form
// "{dashId}-{deviceId}\x00vw\x00{pin}\x00{value...}".
func parseHardwareWrite(payload []byte) (event.HardwareWrite, bool) {
	fields := bytes.Split(payload, []byte{0})
	if len(fields) < 3 {
		return event.HardwareWrite{}, false
	}

	dashID, deviceID, ok := parseAddress(string(fields[0]))
	if !ok {
		return event.HardwareWrite{}, false
	}

	pin, ok := parsePinKind(string(fields[1]))
	if !ok {
		return event.HardwareWrite{}, false
	}

	pinNumber, err := strconv.Atoi(string(fields[2]))
	if err != nil {
		return event.HardwareWrite{}, false
	}

	var values []string
	for _, v := range fields[3:] {
		values = append(values, string(v))
	}

	return event.HardwareWrite{
		DashboardID: dashID,
		DeviceID:    deviceID,
		Pin:         pin,
		PinNumber:   pinNumber,
		Values:      values,
	}, true
}

// parseDeviceOffline parses a DEVICE_OFFLINE frame body of the form
// "{dashId}-{deviceId}".
func parseDeviceOffline(payload []byte) (event.DeviceOffline, bool) {
	dashID, deviceID, ok := parseAddress(string(payload))
	if !ok {
		return event.DeviceOffline{}, false
	}
	return event.DeviceOffline{DashboardID: dashID, DeviceID: deviceID}, true
}

// parseAddress parses the "{dashId}-{deviceId}" tuple used to address a
// board within a dashboard.
func parseAddress(s string) (dashID, deviceID int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	dashID, err1 := strconv.Atoi(parts[0])
	deviceID, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return dashID, deviceID, true
}

func parsePinKind(s string) (event.PinValue, bool) {
	switch s {
	case "vw":
		return event.PinVirtual, true
	case "dw":
		return event.PinDigital, true
	case "aw":
		return event.PinAnalog, true
	default:
		return 0, false
	}
}
