package telenet

import (
	"bufio"
	"bytes"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
)

// Decoder reads exactly one message from a stream.
// Not safe for concurrent use.
type Decoder struct {
	buf bytes.Buffer
	r   *bufio.Reader
	max uint32
}

func (d *Decoder) Attach(r *bufio.Reader, max uint32) {
	d.max = max
	d.r = r
}

// Read decodes one framed message, or one legacy unframed message terminated by EOF.
// Empty stream returns io.EOF.
func (d *Decoder) Read(pb proto.Message) error {
	header, err := d.r.Peek(FrameHeaderSize)
	switch err {
	case nil:
	case io.EOF:
		if len(header) == 0 {
			return io.EOF
		}
		if isFramed(header) {
			return errors.Annotate(io.ErrUnexpectedEOF, "header")
		}
	default:
		return errors.Annotate(err, "header")
	}

	if !isFramed(header) {
		return d.readLegacy(pb)
	}

	frameLen, err := FrameDecode(header, d.max)
	if err != nil {
		return errors.Annotate(err, "frame")
	}
	if _, err = d.r.Discard(FrameHeaderSize); err != nil {
		return errors.Annotate(err, "discard")
	}

	d.buf.Reset()
	d.buf.Grow(int(frameLen))
	buf := d.buf.Bytes()[:frameLen]
	_, err = io.ReadFull(d.r, buf)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return errors.Annotate(err, "readfull")
	}
	if err = proto.Unmarshal(buf, pb); err != nil {
		return errors.Annotate(err, "unmarshal")
	}
	return nil
}

func (d *Decoder) readLegacy(pb proto.Message) error {
	d.buf.Reset()
	var src io.Reader = d.r
	if d.max != 0 {
		src = io.LimitReader(d.r, int64(d.max)+1)
	}
	n, err := d.buf.ReadFrom(src)
	if err != nil {
		return errors.Annotate(err, "read")
	}
	if d.max != 0 && n > int64(d.max) {
		return errors.Errorf("unframed payload exceeds max=%d", d.max)
	}
	if err = proto.Unmarshal(d.buf.Bytes(), pb); err != nil {
		return errors.Annotate(err, "unmarshal")
	}
	return nil
}
