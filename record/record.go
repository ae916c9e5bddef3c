// Package record frames keys and tagged values into checksummed,
// length-prefixed log records and parses them back during replay.
//
// Format: [KeyLen:4][Key:N][Tag:1][ValueLen:4][Value:N][Checksum:4]
//
// All integers are little-endian. Tombstones carry no value: the
// checksum follows the tag directly.
package record

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/kvgo/value"
)

// TagTombstone marks a logically deleted key. It lives outside the
// value kind space and never carries a value payload.
const TagTombstone uint8 = 0xFF

// MaxKeySize and MaxValueSize are the framing limits imposed by the
// 32-bit length prefixes.
const (
	MaxKeySize   = math.MaxUint32
	MaxValueSize = math.MaxUint32
)

const (
	keyLenSize   = 4
	tagSize      = 1
	valueLenSize = 4
	checksumSize = 4

	putOverhead       = keyLenSize + tagSize + valueLenSize + checksumSize
	tombstoneOverhead = keyLenSize + tagSize + checksumSize
)

// Record is one parsed unit of the append log.
type Record struct {
	Key   []byte
	Tag   uint8
	Value []byte
}

// IsTombstone reports whether the record deletes its key.
func (r Record) IsTombstone() bool { return r.Tag == TagTombstone }

// PutSize returns the framed on-disk size of a put record.
func PutSize(keyLen, valueLen int) int64 {
	return int64(keyLen) + int64(valueLen) + putOverhead
}

// TombstoneSize returns the framed on-disk size of a tombstone record.
func TombstoneSize(keyLen int) int64 {
	return int64(keyLen) + tombstoneOverhead
}

// AppendPut appends a framed put record to dst and returns the extended
// slice. The caller guarantees key is non-empty and key/val fit the
// framing limits.
func AppendPut(dst []byte, key []byte, kind value.Kind, val []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(key)))
	dst = append(dst, key...)
	dst = append(dst, byte(kind))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(val)))
	dst = append(dst, val...)
	return binary.LittleEndian.AppendUint32(dst, Checksum(key, byte(kind), val))
}

// AppendTombstone appends a framed tombstone record to dst and returns
// the extended slice.
func AppendTombstone(dst []byte, key []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(key)))
	dst = append(dst, key...)
	dst = append(dst, TagTombstone)
	return binary.LittleEndian.AppendUint32(dst, Checksum(key, TagTombstone, nil))
}
