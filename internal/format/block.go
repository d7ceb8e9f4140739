package format

import (
	"fmt"
	"io"
)

// ReadBlock reads one framed plane block and returns the raw plane bytes.
// reserve, if non-nil, is called with the number of bytes about to be
// allocated so callers can account for or refuse large payloads.
func ReadBlock(r io.Reader, c Compression, reserve func(n int64) error) ([]byte, error) {
	var hdr [BlockHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	rawSize, storedSize, err := DecodeBlockHeader(hdr[:])
	if err != nil {
		return nil, err
	}

	payloadSize := storedSize
	if storedSize == 0 {
		payloadSize = rawSize
	} else if c == CompressionNone {
		return nil, fmt.Errorf("compressed block in a %s snapshot", c)
	}

	if reserve != nil {
		if err := reserve(int64(payloadSize) + int64(rawSize)); err != nil {
			return nil, err
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if storedSize == 0 {
		return payload, nil
	}
	return DecodePayload(payload, rawSize, c)
}
