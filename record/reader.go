package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/hupe1980/kvgo/value"
)

var (
	// ErrTruncated reports a record cut off by the end of the log: the
	// frame declares more bytes than remain. It indicates an incomplete
	// last write, recoverable by truncating to the previous record
	// boundary.
	ErrTruncated = errors.New("truncated record")

	// ErrInvalidRecord reports a structurally invalid record (zero key
	// length or an unknown type tag). Unlike a truncated frame, the
	// damage leaves no way to find the next record boundary.
	ErrInvalidRecord = errors.New("invalid record")
)

// Reader parses records sequentially from a log stream. It makes a
// single forward pass and is not restartable.
type Reader struct {
	br        *bufio.Reader
	remaining int64
}

// NewReader returns a Reader that parses size bytes from r.
func NewReader(r io.Reader, size int64, bufSize int) *Reader {
	return &Reader{
		br:        bufio.NewReaderSize(r, bufSize),
		remaining: size,
	}
}

// Remaining returns the number of unparsed bytes. After Next returns an
// error, a zero remainder means the failed record ran to the end of the
// log, the signature of an interrupted write rather than mid-file
// damage.
func (r *Reader) Remaining() int64 { return r.remaining }

// Next parses the next record and returns it together with its framed
// size. io.EOF reports a clean end of the log at a record boundary.
// ErrTruncated, ErrInvalidRecord and *ChecksumMismatchError report the
// failure modes; none of them are retryable.
func (r *Reader) Next() (Record, int64, error) {
	if r.remaining == 0 {
		return Record{}, 0, io.EOF
	}

	var hdr [keyLenSize]byte
	if err := r.read(hdr[:]); err != nil {
		return Record{}, 0, err
	}
	keyLen := binary.LittleEndian.Uint32(hdr[:])
	if keyLen == 0 {
		return Record{}, 0, ErrInvalidRecord
	}
	// Bound the allocation before trusting the declared length.
	if int64(keyLen) > r.remaining {
		return Record{}, 0, ErrTruncated
	}
	key := make([]byte, keyLen)
	if err := r.read(key); err != nil {
		return Record{}, 0, err
	}

	var tagBuf [tagSize]byte
	if err := r.read(tagBuf[:]); err != nil {
		return Record{}, 0, err
	}
	tag := tagBuf[0]

	if tag == TagTombstone {
		stored, err := r.readChecksum()
		if err != nil {
			return Record{}, 0, err
		}
		if sum := Checksum(key, tag, nil); sum != stored {
			return Record{}, 0, &ChecksumMismatchError{Expected: stored, Actual: sum}
		}
		return Record{Key: key, Tag: tag}, TombstoneSize(int(keyLen)), nil
	}

	if !value.Kind(tag).Valid() {
		return Record{}, 0, ErrInvalidRecord
	}

	var lenBuf [valueLenSize]byte
	if err := r.read(lenBuf[:]); err != nil {
		return Record{}, 0, err
	}
	valueLen := binary.LittleEndian.Uint32(lenBuf[:])
	if int64(valueLen) > r.remaining {
		return Record{}, 0, ErrTruncated
	}
	val := make([]byte, valueLen)
	if err := r.read(val); err != nil {
		return Record{}, 0, err
	}

	stored, err := r.readChecksum()
	if err != nil {
		return Record{}, 0, err
	}
	if sum := Checksum(key, tag, val); sum != stored {
		return Record{}, 0, &ChecksumMismatchError{Expected: stored, Actual: sum}
	}

	return Record{Key: key, Tag: tag, Value: val}, PutSize(int(keyLen), int(valueLen)), nil
}

func (r *Reader) readChecksum() (uint32, error) {
	var buf [checksumSize]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (r *Reader) read(buf []byte) error {
	if int64(len(buf)) > r.remaining {
		return ErrTruncated
	}
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	r.remaining -= int64(len(buf))
	return nil
}
