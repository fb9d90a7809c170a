package event

import "time"

// Kind discriminates the payload carried by an Event.
type Kind int

const (
	// KindHardwareWrite is a hardware pin write (vw/dw/aw) relayed from a
	// device on an active dashboard.
	KindHardwareWrite Kind = iota
	// KindHardwareSync carries a bulk hardware-sync payload.
	KindHardwareSync
	// KindAppSync carries a bulk app-sync payload.
	KindAppSync
	// KindDeviceOffline reports a device disconnecting from the server.
	KindDeviceOffline
	// KindUnsolicitedResponse is a RESPONSE frame that matched no pending
	// request — typically a late reply whose request already timed out.
	KindUnsolicitedResponse
	// KindRaw carries any other command frame the router did not have a
	// more specific mapping for, unparsed.
	KindRaw

	// KindRegistered reports a successful REGISTER.
	KindRegistered
	// KindReconnecting reports the controller entering a reconnect attempt.
	KindReconnecting
	// KindReconnected reports a reconnect attempt's success.
	KindReconnected
	// KindDisconnected reports the controller giving up or being told to
	// disconnect.
	KindDisconnected
)

// PinValue identifies which pin namespace a hardware write addresses.
type PinValue int

const (
	PinVirtual PinValue = iota
	PinDigital
	PinAnalog
)

// HardwareWrite is the decoded payload of a KindHardwareWrite event.
type HardwareWrite struct {
	DashboardID int
	DeviceID    int
	Pin         PinValue
	PinNumber   int
	Values      []string
}

// DeviceOffline is the decoded payload of a KindDeviceOffline event.
type DeviceOffline struct {
	DashboardID int
	DeviceID    int
}

// UnsolicitedResponse is the decoded payload of a KindUnsolicitedResponse
// event.
type UnsolicitedResponse struct {
	MessageID uint16
	Code      uint32
}

// Raw is the decoded payload of a KindRaw event.
type Raw struct {
	Command uint8
	Payload []byte
}

// Reconnecting is the decoded payload of a KindReconnecting event.
type Reconnecting struct {
	Attempt int
}

// Event is a single item on the session controller's public stream.
type Event struct {
	Kind      Kind
	Timestamp time.Time

	HardwareWrite       *HardwareWrite
	DeviceOffline       *DeviceOffline
	UnsolicitedResponse *UnsolicitedResponse
	Raw                 *Raw
	Reconnecting        *Reconnecting
}
