package action

import (
	"bytes"
	"testing"

	"github.com/blynk-protocol/blynk-go/pkg/auth"
	"github.com/blynk-protocol/blynk-go/pkg/correlator"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

func TestLoginBodyLayout(t *testing.T) {
	digest := auth.HashPassword("hunter2", "user@example.com")
	a := Login("user@example.com", digest, "MyApp")

	if a.Command != wire.LOGIN {
		t.Errorf("Command = %v, want LOGIN", a.Command)
	}
	if a.Kind != correlator.ResponseOnly {
		t.Errorf("Kind = %v, want ResponseOnly", a.Kind)
	}

	want := bytes.Join([][]byte{
		[]byte("user@example.com"),
		[]byte(digest),
		[]byte("iOS"),
		[]byte("1.0.0"),
		[]byte("MyApp"),
	}, []byte{0})
	if !bytes.Equal(a.Body, want) {
		t.Errorf("Body = %q, want %q", a.Body, want)
	}
}

func TestLoadProfileGzippedIsDataResponse(t *testing.T) {
	a := LoadProfileGzipped()
	if a.Kind != correlator.DataResponse {
		t.Errorf("Kind = %v, want DataResponse", a.Kind)
	}
}

func TestSetWidgetPropertyBodyLayout(t *testing.T) {
	a := SetWidgetProperty(1, 100, "4", "color", "#FF0000")
	want := []byte("1-100\x004\x00color\x00#FF0000")
	if !bytes.Equal(a.Body, want) {
		t.Errorf("Body = %q, want %q", a.Body, want)
	}
}

func TestCreateWidgetEncodesJSONAndPrependsDashID(t *testing.T) {
	widget := map[string]any{"id": 1, "label": "Switch"}
	a, err := CreateWidget(JSONCodec{}, 7, widget)
	if err != nil {
		t.Fatal(err)
	}
	if a.Command != wire.CREATE_WIDGET {
		t.Errorf("Command = %v, want CREATE_WIDGET", a.Command)
	}
	parts := bytes.SplitN(a.Body, []byte{0}, 2)
	if string(parts[0]) != "7" {
		t.Errorf("dashboard id prefix = %q, want 7", parts[0])
	}
}
