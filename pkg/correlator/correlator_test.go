package correlator

import (
	"errors"
	"testing"
	"time"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
	"github.com/blynk-protocol/blynk-go/pkg/wire"
)

func TestResponseOnlyResolves(t *testing.T) {
	c := New()
	id, await, err := c.Allocate(ResponseOnly, time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	if resolved := c.ResolveResponse(id, wire.StatusOK); !resolved {
		t.Fatal("expected ResolveResponse to resolve the pending entry")
	}

	select {
	case res := <-await:
		if res.Code != wire.StatusOK {
			t.Errorf("Code = %v, want StatusOK", res.Code)
		}
	default:
		t.Fatal("await channel did not receive a result")
	}
}

func TestDataResponseIgnoresInterveningResponseOK(t *testing.T) {
	c := New()
	id, await, err := c.Allocate(DataResponse, time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	if resolved := c.ResolveResponse(id, wire.StatusOK); resolved {
		t.Fatal("DataResponse entry should not resolve on an OK RESPONSE")
	}

	frame := wire.Frame{Command: wire.LOAD_PROFILE_GZIPPED, ID: id, Payload: []byte("profile")}
	if resolved := c.ResolveData(frame); !resolved {
		t.Fatal("expected ResolveData to resolve the pending entry")
	}

	select {
	case res := <-await:
		if string(res.Frame.Payload) != "profile" {
			t.Errorf("payload = %q", res.Frame.Payload)
		}
	default:
		t.Fatal("await channel did not receive a result")
	}
}

func TestDataResponseFailsOnNonOKResponse(t *testing.T) {
	c := New()
	id, await, err := c.Allocate(DataResponse, time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	if resolved := c.ResolveResponse(id, wire.StatusIllegalCommand); !resolved {
		t.Fatal("expected a non-OK RESPONSE to fail the DataResponse entry")
	}

	select {
	case res := <-await:
		var serverErr *blynkerr.ServerError
		if !errors.As(res.Err, &serverErr) {
			t.Fatalf("expected *ServerError, got %v", res.Err)
		}
	default:
		t.Fatal("await channel did not receive a result")
	}
}

func TestFailAllCompletesEveryPendingEntry(t *testing.T) {
	c := New()
	_, await1, _ := c.Allocate(ResponseOnly, time.Time{})
	_, await2, _ := c.Allocate(DataResponse, time.Time{})

	c.FailAll(blynkerr.ErrConnectionClosed)

	for _, await := range []<-chan Result{await1, await2} {
		select {
		case res := <-await:
			if !errors.Is(res.Err, blynkerr.ErrConnectionClosed) {
				t.Errorf("Err = %v, want ErrConnectionClosed", res.Err)
			}
		default:
			t.Fatal("await channel did not receive a result")
		}
	}

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after FailAll", c.Len())
	}
}

func TestExpireDeadlines(t *testing.T) {
	c := New()
	past := time.Now().Add(-time.Second)
	_, await, _ := c.Allocate(ResponseOnly, past)

	c.ExpireDeadlines(time.Now())

	select {
	case res := <-await:
		if !errors.Is(res.Err, blynkerr.ErrTimeout) {
			t.Errorf("Err = %v, want ErrTimeout", res.Err)
		}
	default:
		t.Fatal("expired entry did not receive a result")
	}
}

func TestAllocateWrapsMessageID(t *testing.T) {
	c := New()
	c.next = 65535

	id1, _, err := c.Allocate(ResponseOnly, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != 65535 {
		t.Fatalf("id1 = %d, want 65535", id1)
	}

	id2, _, err := c.Allocate(ResponseOnly, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != 0 {
		t.Fatalf("id2 = %d, want 0 (wrapped)", id2)
	}
}

func TestUnresolvedResponseReturnsFalse(t *testing.T) {
	c := New()
	if resolved := c.ResolveResponse(999, wire.StatusOK); resolved {
		t.Error("expected no pending entry at id 999")
	}
}
