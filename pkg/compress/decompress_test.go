package compress

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
)

func TestDecompressPlaintextPassesThrough(t *testing.T) {
	in := []byte(`{"dash":1}`)
	out, err := Decompress(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("got %q, want %q", out, in)
	}
}

func TestDecompressZlib(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	want := []byte(`{"dash":1,"widgets":[]}`)
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	w.Close()

	got, err := Decompress(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	want := []byte(`{"dash":2}`)
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	w.Close()

	got, err := Decompress(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressTruncatedZlibFails(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte("some payload long enough to survive truncation"))
	w.Close()

	truncated := buf.Bytes()[:len(buf.Bytes())-4]
	_, err := Decompress(truncated)
	if !errors.Is(err, blynkerr.ErrDecompress) {
		t.Errorf("expected ErrDecompress, got %v", err)
	}
}
