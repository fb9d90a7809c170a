package compress

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/blynk-protocol/blynk-go/pkg/blynkerr"
)

// Decompress inspects the leading bytes of data and decodes it if it
// carries a recognised zlib or gzip signature. Data with no recognised
// signature is returned unchanged, on the assumption that it is already
// plaintext (this is how LOAD_PROFILE_GZIPPED payloads arrive when the
// server opts not to compress a small profile).
func Decompress(data []byte) ([]byte, error) {
	switch {
	case isZlib(data):
		return inflate(zlib.NewReader, data)
	case isGzip(data):
		return inflate(func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }, data)
	default:
		return data, nil
	}
}

func isZlib(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] != 0x78 {
		return false
	}
	switch data[1] {
	case 0x01, 0x5E, 0x9C, 0xDA:
		return true
	default:
		return false
	}
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}

func inflate(newReader func(io.Reader) (io.ReadCloser, error), data []byte) ([]byte, error) {
	r, err := newReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blynkerr.ErrDecompress, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blynkerr.ErrDecompress, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty output", blynkerr.ErrDecompress)
	}
	return out, nil
}
