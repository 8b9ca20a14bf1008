// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package payload

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Varint markers. Values below varUint16Marker are written as a single byte.
const (
	varUint16Marker byte = 0xFD
	varUint32Marker byte = 0xFE
	varUint64Marker byte = 0xFF

	// Uint256Len is the fixed width of an encoded amount
	Uint256Len = 32
)

var (
	// ErrShortBuffer is returned when a field runs past the end of the input
	ErrShortBuffer = errors.New("short buffer")
	// ErrUint256Overflow is returned for amounts that do not fit the signed
	// 32 byte representation used by the paired proxies
	ErrUint256Overflow = errors.New("value out of range of uint255")
	// ErrTrailingBytes is returned when input remains after the last field
	ErrTrailingBytes = errors.New("trailing bytes")
)

// Writer appends fields to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with [size] bytes preallocated
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// WriteVarUint writes v using the variable length integer scheme.
func (w *Writer) WriteVarUint(v uint64) {
	switch {
	case v < uint64(varUint16Marker):
		w.buf = append(w.buf, byte(v))
	case v <= 0xFFFF:
		w.buf = append(w.buf, varUint16Marker)
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
	case v <= 0xFFFFFFFF:
		w.buf = append(w.buf, varUint32Marker)
		w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	default:
		w.buf = append(w.buf, varUint64Marker)
		w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	}
}

// WriteVarBytes writes a varint length prefix followed by b.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteUint256 writes v as 32 little-endian bytes. The high bit of the last
// byte must stay clear, otherwise the value would need a 33rd sign byte.
func (w *Writer) WriteUint256(v *uint256.Int) error {
	if v == nil {
		return fmt.Errorf("%w: nil value", ErrUint256Overflow)
	}
	if v.BitLen() >= Uint256Len*8 {
		return fmt.Errorf("%w: %s", ErrUint256Overflow, v.Dec())
	}
	be := v.Bytes32()
	for i := Uint256Len - 1; i >= 0; i-- {
		w.buf = append(w.buf, be[i])
	}
	return nil
}

// Bytes returns the encoded buffer
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes fields from a byte slice. Every read is bounds checked and
// returned slices are copies of the input.
type Reader struct {
	buf    []byte
	offset int
}

// NewReader returns a reader positioned at the start of b
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the number of bytes consumed so far
func (r *Reader) Offset() int {
	return r.offset
}

// Len returns the number of unread bytes
func (r *Reader) Len() int {
	return len(r.buf) - r.offset
}

func (r *Reader) next(n uint64) ([]byte, error) {
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.offset, r.Len())
	}
	b := r.buf[r.offset : r.offset+int(n)]
	r.offset += int(n)
	return b, nil
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n uint64) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadVarUint reads a variable length integer. Non-minimal encodings are
// accepted, matching the paired decoders.
func (r *Reader) ReadVarUint() (uint64, error) {
	marker, err := r.next(1)
	if err != nil {
		return 0, err
	}
	switch marker[0] {
	case varUint16Marker:
		b, err := r.next(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case varUint32Marker:
		b, err := r.next(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case varUint64Marker:
		b, err := r.next(8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b), nil
	default:
		return uint64(marker[0]), nil
	}
}

// ReadVarBytes reads a length prefixed byte string.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(n)
}

// ReadUint256 reads a 32 byte little-endian amount.
func (r *Reader) ReadUint256() (*uint256.Int, error) {
	le, err := r.next(Uint256Len)
	if err != nil {
		return nil, err
	}
	if le[Uint256Len-1]&0x80 != 0 {
		return nil, fmt.Errorf("%w: sign bit set at offset %d", ErrUint256Overflow, r.offset-1)
	}
	var be [Uint256Len]byte
	for i := 0; i < Uint256Len; i++ {
		be[i] = le[Uint256Len-1-i]
	}
	return new(uint256.Int).SetBytes32(be[:]), nil
}
