package telenet

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
)

var (
	ErrFrameInvalid     = fmt.Errorf("frame is invalid")
	ErrFrameLenOverflow = fmt.Errorf("frame is too large")
)

const DefaultReadLimit = 16 << 10

// Frame wraps message with header
const (
	FrameMagic      = uint16(0x7602)
	FrameHeaderSize = 2 /*magic*/ + 2 /*length*/
)

func FrameMarshal(pb proto.Message) ([]byte, error) {
	size := proto.Size(pb)
	if FrameHeaderSize+size >= math.MaxUint16 {
		return nil, ErrFrameLenOverflow
	}
	b := make([]byte, FrameHeaderSize, FrameHeaderSize+size)
	pbuf := proto.NewBuffer(b)
	if err := pbuf.Marshal(pb); err != nil {
		return nil, errors.Annotate(err, "marshal")
	}
	b = pbuf.Bytes()
	binary.BigEndian.PutUint16(b[0:], FrameMagic)
	binary.BigEndian.PutUint16(b[2:], uint16(size))
	return b, nil
}

// FrameDecode validates header and returns payload length.
func FrameDecode(header []byte, max uint32) (uint16, error) {
	if len(header) < FrameHeaderSize {
		return 0, ErrFrameInvalid
	}
	if magic := binary.BigEndian.Uint16(header[0:]); magic != FrameMagic {
		return 0, ErrFrameInvalid
	}
	frameLen := binary.BigEndian.Uint16(header[2:])
	if max != 0 && uint32(frameLen) > max {
		return 0, errors.Errorf("frameLen=%d exceeds max=%d", frameLen, max)
	}
	return frameLen, nil
}

func isFramed(b []byte) bool {
	return len(b) >= 2 && binary.BigEndian.Uint16(b) == FrameMagic
}
