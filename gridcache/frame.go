package gridcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/gridpool/codec"
)

// Compression defines the block compression applied to frame payloads.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot entries).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold entries).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// Frame layout:
//
//	[4]byte  magic "GRC1"
//	uint8    compression (may differ from the requested one: incompressible
//	         payloads are stored as CompressionNone)
//	uint8    codec name length, followed by the name bytes
//	uint32   uncompressed payload size (little endian)
//	uint32   CRC32C of the stored payload (little endian)
//	[]byte   payload
var frameMagic = [4]byte{'G', 'R', 'C', '1'}

var (
	// ErrBadFrame indicates a frame that is truncated or not a frame at all.
	ErrBadFrame = errors.New("gridcache: malformed frame")
	// ErrChecksum indicates payload corruption.
	ErrChecksum = errors.New("gridcache: frame checksum mismatch")
)

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial, which is
// hardware accelerated on x86 and ARM.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// ZSTD encoder/decoder pools: Encoder/Decoder construction is expensive
// relative to EncodeAll/DecodeAll on frame-sized payloads.
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

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// EncodeFrame encodes v with c and wraps it in a self-describing frame.
// If compression does not shrink the payload, it is stored uncompressed.
func EncodeFrame(c codec.Codec, compression Compression, v any) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	payload, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("gridcache: encode payload: %w", err)
	}

	stored, actual, err := compressBlock(payload, compression)
	if err != nil {
		return nil, err
	}

	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("gridcache: codec name too long: %q", name)
	}

	out := make([]byte, 0, len(frameMagic)+2+len(name)+8+len(stored))
	out = append(out, frameMagic[:]...)
	out = append(out, byte(actual), byte(len(name)))
	out = append(out, name...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(stored, crc32cTable))
	out = append(out, stored...)
	return out, nil
}

// DecodeFrame verifies and decodes a frame produced by EncodeFrame into v.
// The codec is selected by the name recorded in the frame header.
func DecodeFrame(data []byte, v any) error {
	if len(data) < len(frameMagic)+2 {
		return ErrBadFrame
	}
	if [4]byte(data[:4]) != frameMagic {
		return ErrBadFrame
	}

	compression := Compression(data[4])
	nameLen := int(data[5])
	rest := data[6:]
	if len(rest) < nameLen+8 {
		return ErrBadFrame
	}

	name := string(rest[:nameLen])
	c, ok := codec.ByName(name)
	if !ok {
		return fmt.Errorf("gridcache: unknown codec %q", name)
	}

	uncompressedSize := binary.LittleEndian.Uint32(rest[nameLen:])
	sum := binary.LittleEndian.Uint32(rest[nameLen+4:])
	stored := rest[nameLen+8:]

	if crc32.Checksum(stored, crc32cTable) != sum {
		return ErrChecksum
	}

	payload, err := decompressBlock(stored, compression, int(uncompressedSize))
	if err != nil {
		return err
	}
	if err := c.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("gridcache: decode payload: %w", err)
	}
	return nil
}

// compressBlock compresses data with the requested algorithm. It falls back
// to storing the payload uncompressed when compression does not help, and
// reports the compression actually applied.
func compressBlock(data []byte, compression Compression) ([]byte, Compression, error) {
	if compression == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	switch compression {
	case CompressionLZ4:
		var c lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, dst)
		if err != nil || n == 0 || n >= len(data) {
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed := enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZSTD, nil

	default:
		return nil, CompressionNone, fmt.Errorf("gridcache: unknown compression %v", compression)
	}
}

func decompressBlock(stored []byte, compression Compression, uncompressedSize int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return stored, nil

	case CompressionLZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return nil, fmt.Errorf("gridcache: lz4 decompress: %w", err)
		}
		return dst[:n], nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		payload, err := dec.DecodeAll(stored, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("gridcache: zstd decompress: %w", err)
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("gridcache: unknown compression %v", compression)
	}
}
