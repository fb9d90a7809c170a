package action

import (
	"testing"

	"github.com/blynk-protocol/blynk-go/pkg/event"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

func TestDecodeEventHardwareWrite(t *testing.T) {
	f := wire.Frame{Command: wire.HARDWARE, Payload: []byte("1-100\x00vw\x004\x00128")}
	ev := DecodeEvent(f)
	if ev.Kind != event.KindHardwareWrite {
		t.Fatalf("Kind = %v, want KindHardwareWrite", ev.Kind)
	}
	hw := ev.HardwareWrite
	if hw.DashboardID != 1 || hw.DeviceID != 100 {
		t.Errorf("address = %d-%d, want 1-100", hw.DashboardID, hw.DeviceID)
	}
	if hw.Pin != event.PinVirtual || hw.PinNumber != 4 {
		t.Errorf("pin = %v%d, want virtual 4", hw.Pin, hw.PinNumber)
	}
	if len(hw.Values) != 1 || hw.Values[0] != "128" {
		t.Errorf("values = %v, want [128]", hw.Values)
	}
}

func TestDecodeEventDeviceOffline(t *testing.T) {
	f := wire.Frame{Command: wire.DEVICE_OFFLINE, Payload: []byte("3-42")}
	ev := DecodeEvent(f)
	if ev.Kind != event.KindDeviceOffline {
		t.Fatalf("Kind = %v, want KindDeviceOffline", ev.Kind)
	}
	if ev.DeviceOffline.DashboardID != 3 || ev.DeviceOffline.DeviceID != 42 {
		t.Errorf("address = %d-%d, want 3-42", ev.DeviceOffline.DashboardID, ev.DeviceOffline.DeviceID)
	}
}

func TestDecodeEventUnknownCommandProducesRaw(t *testing.T) {
	f := wire.Frame{Command: wire.EMAIL_QR, Payload: []byte("x")}
	ev := DecodeEvent(f)
	if ev.Kind != event.KindRaw {
		t.Errorf("Kind = %v, want KindRaw", ev.Kind)
	}
}

func TestDecodeUnsolicitedResponse(t *testing.T) {
	ev := DecodeUnsolicitedResponse(7, wire.StatusNoData)
	if ev.Kind != event.KindUnsolicitedResponse {
		t.Fatalf("Kind = %v, want KindUnsolicitedResponse", ev.Kind)
	}
	if ev.UnsolicitedResponse.MessageID != 7 {
		t.Errorf("MessageID = %d, want 7", ev.UnsolicitedResponse.MessageID)
	}
}

func TestParseHardwareWriteRejectsMalformedAddress(t *testing.T) {
	_, ok := parseHardwareWrite([]byte("not-an-address-vw"))
	if ok {
		t.Error("expected malformed address to fail parsing")
	}
}
