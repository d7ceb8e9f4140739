package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/fieldarray/internal/conv"
)

// Compression selects how plane blocks are stored.
type Compression uint8

const (
	// CompressionNone stores planes as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, slower).
	CompressionZSTD Compression = 2
)

// String returns the algorithm name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool {
	return c <= CompressionZSTD
}

// ParseCompression maps an algorithm name to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	// Output is capped at cap(dst), so a frame can never inflate past the
	// declared raw size.
	dec, _ := zstd.NewReader(nil,
		zstd.WithDecodeAllCapLimit(true),
		zstd.WithDecoderMaxMemory(MaxBlockSize),
		zstd.WithDecoderMaxWindow(MaxBlockSize),
		zstd.WithDecoderConcurrency(1),
	)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// BlockHeaderSize is the size of a plane block header:
// [UncompressedSize uint32][CompressedSize uint32]. CompressedSize 0 means the
// payload is stored uncompressed.
const BlockHeaderSize = 8

// MaxBlockSize bounds a single plane payload: 2^31 bits plus encoding slack.
const MaxBlockSize = 1<<28 + 1<<20

var errSizeMismatch = errors.New("decompressed size mismatch")

// EncodeBlock frames data as a plane block, compressing it when that saves
// at least 10%.
func EncodeBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) > MaxBlockSize {
		return nil, fmt.Errorf("plane block of %d bytes exceeds limit", len(data))
	}

	var compressed []byte
	var err error
	switch c {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	}
	if err != nil {
		return nil, err
	}

	rawSize, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, err
	}

	// If compression doesn't help (ratio > 0.9), store uncompressed
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, BlockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], rawSize)
		binary.LittleEndian.PutUint32(result[4:], 0)
		copy(result[BlockHeaderSize:], data)
		return result, nil
	}

	storedSize, err := conv.IntToUint32(len(compressed))
	if err != nil {
		return nil, err
	}
	result := make([]byte, BlockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], rawSize)
	binary.LittleEndian.PutUint32(result[4:], storedSize)
	copy(result[BlockHeaderSize:], compressed)
	return result, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

// DecodeBlockHeader returns the raw and stored payload sizes of a block.
// A stored size of zero means the payload is raw.
func DecodeBlockHeader(hdr []byte) (rawSize, storedSize uint32, err error) {
	if len(hdr) < BlockHeaderSize {
		return 0, 0, errors.New("block too small for header")
	}
	rawSize = binary.LittleEndian.Uint32(hdr[0:])
	storedSize = binary.LittleEndian.Uint32(hdr[4:])
	if rawSize > MaxBlockSize || storedSize > MaxBlockSize {
		return 0, 0, fmt.Errorf("block size %d/%d exceeds limit", rawSize, storedSize)
	}
	return rawSize, storedSize, nil
}

// DecodePayload restores the raw plane bytes from a compressed payload.
func DecodePayload(payload []byte, rawSize uint32, c Compression) ([]byte, error) {
	result := make([]byte, rawSize)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawSize {
			return nil, errSizeMismatch
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(payload, result[:0])
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, errSizeMismatch
		}
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != rawSize {
			return nil, errSizeMismatch
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("compressed block in a %s snapshot", c)
	}
}
