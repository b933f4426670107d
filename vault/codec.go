package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Codec maps an ordered set of records to the plaintext that gets sealed.
// Decode(Encode(r), len(r)) must return r.
type Codec interface {
	Name() string
	Encode(records []Record) ([]byte, error)
	Decode(data []byte, count int) ([]Record, error)
	// Count reports how many records data holds.
	Count(data []byte) (int, error)
}

const (
	LayoutFramed  = "framed"
	LayoutSlotted = "slotted"
)

// NewCodec returns the codec for a layout name.
func NewCodec(layout string, limits Limits) (Codec, error) {
	if limits.Site <= 0 || limits.Username <= 0 || limits.Password <= 0 {
		return nil, errors.Errorf("vault: field limits must be positive, got %+v", limits)
	}
	if limits.slotSize() > math.MaxUint16 {
		return nil, errors.Errorf("vault: field limits %+v do not fit a record frame", limits)
	}
	switch layout {
	case "", LayoutFramed:
		return framedCodec{limits: limits}, nil
	case LayoutSlotted:
		return slottedCodec{limits: limits}, nil
	}
	return nil, errors.Errorf("vault: unknown layout %q", layout)
}

const frameHeaderLen = 2

// framedCodec prefixes every "site:username:password" body with its
// big-endian uint16 length.
type framedCodec struct {
	limits Limits
}

func (framedCodec) Name() string { return LayoutFramed }

func (c framedCodec) Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	hdr := make([]byte, frameHeaderLen)
	for _, r := range records {
		if err := c.limits.validate("encode", r); err != nil {
			return nil, err
		}
		body := encodeBody(r)
		binary.BigEndian.PutUint16(hdr, uint16(len(body)))
		buf.Write(hdr)
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

func (c framedCodec) Count(data []byte) (int, error) {
	n := 0
	for off := 0; off < len(data); n++ {
		next, err := nextFrame(data, off)
		if err != nil {
			return 0, err
		}
		off = next
	}
	return n, nil
}

func (c framedCodec) Decode(data []byte, count int) ([]Record, error) {
	records := make([]Record, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		next, err := nextFrame(data, off)
		if err != nil {
			return nil, err
		}
		r, err := c.limits.decodeBody(data[off+frameHeaderLen : next])
		if err != nil {
			return nil, err
		}
		records = append(records, r)
		off = next
	}
	if off != len(data) {
		return nil, newError("decode", MalformedRecord, fmt.Sprintf("%d trailing bytes", len(data)-off))
	}
	return records, nil
}

func nextFrame(data []byte, off int) (int, error) {
	if len(data)-off < frameHeaderLen {
		return 0, newError("decode", MalformedRecord, "short frame header")
	}
	n := int(binary.BigEndian.Uint16(data[off:]))
	end := off + frameHeaderLen + n
	if end > len(data) {
		return 0, newError("decode", MalformedRecord, "frame overruns payload")
	}
	return end, nil
}

// slottedCodec is the legacy layout: every record occupies a fixed slot of
// Limits.slotSize() bytes, NUL padded.
type slottedCodec struct {
	limits Limits
}

func (slottedCodec) Name() string { return LayoutSlotted }

func (c slottedCodec) Encode(records []Record) ([]byte, error) {
	size := c.limits.slotSize()
	out := make([]byte, len(records)*size)
	for i, r := range records {
		if err := c.limits.validate("encode", r); err != nil {
			return nil, err
		}
		copy(out[i*size:], encodeBody(r))
	}
	return out, nil
}

func (c slottedCodec) Count(data []byte) (int, error) {
	size := c.limits.slotSize()
	if len(data)%size != 0 {
		return 0, newError("decode", MalformedRecord,
			fmt.Sprintf("payload of %d bytes is not a whole number of %d-byte slots", len(data), size))
	}
	return len(data) / size, nil
}

func (c slottedCodec) Decode(data []byte, count int) ([]Record, error) {
	size := c.limits.slotSize()
	if len(data) != count*size {
		return nil, newError("decode", MalformedRecord,
			fmt.Sprintf("want %d slots, payload holds %d bytes", count, len(data)))
	}
	records := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		slot := data[i*size : (i+1)*size]
		if n := bytes.IndexByte(slot, 0); n >= 0 {
			slot = slot[:n]
		}
		r, err := c.limits.decodeBody(slot)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func encodeBody(r Record) []byte {
	b := make([]byte, 0, len(r.Site)+len(r.Username)+len(r.Password)+2)
	b = append(b, r.Site...)
	b = append(b, Delimiter)
	b = append(b, r.Username...)
	b = append(b, Delimiter)
	b = append(b, r.Password...)
	return b
}

func (l Limits) decodeBody(body []byte) (Record, error) {
	parts := bytes.Split(body, []byte{Delimiter})
	if len(parts) != 3 {
		return Record{}, newError("decode", MalformedRecord,
			fmt.Sprintf("want 2 delimiters, found %d", len(parts)-1))
	}
	r := Record{Site: string(parts[0]), Username: string(parts[1]), Password: string(parts[2])}
	if err := l.validate("decode", r); err != nil {
		return Record{}, &Error{Kind: MalformedRecord, Op: "decode", Detail: err.(*Error).Detail}
	}
	return r, nil
}
