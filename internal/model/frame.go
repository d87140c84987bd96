package model

import "errors"

var (
	ErrFrameFull     = errors.New("packet does not fit in transmit frame")
	ErrStringTooLong = errors.New("string exceeds 65535 bytes")
)

// Frame is a fixed capacity transmit buffer. Every build overwrites it.
// A build that does not fit leaves the previous contents untouched.
type Frame struct {
	buf []byte
}

func NewFrame(capacity int) *Frame {
	return &Frame{buf: make([]byte, 0, capacity)}
}

// Bytes returns the last built packet. Valid until the next build.
func (f *Frame) Bytes() []byte {
	return f.buf
}

func (f *Frame) Len() int {
	return len(f.buf)
}

func (f *Frame) Cap() int {
	return cap(f.buf)
}

func (f *Frame) Reset() {
	f.buf = f.buf[:0]
}

// begin checks that a packet with remaining length rl fits, then writes its fixed header.
func (f *Frame) begin(header byte, rl int) error {
	if rl > MaxRemainingLength {
		return ErrFrameFull
	}
	if 1+LengthToNumberOfVariableLengthBytes(rl)+rl > cap(f.buf) {
		return ErrFrameFull
	}

	f.buf = append(f.buf[:0], header)
	f.buf = VariableLengthEncode(f.buf, rl)
	return nil
}

func (f *Frame) putUint16(v uint16) {
	f.buf = append(f.buf, byte(v>>8), byte(v))
}

func (f *Frame) putString(s []byte) {
	f.putUint16(uint16(len(s)))
	f.buf = append(f.buf, s...)
}

func checkStrings(ss ...[]byte) error {
	for _, s := range ss {
		if len(s) > 65535 {
			return ErrStringTooLong
		}
	}
	return nil
}
