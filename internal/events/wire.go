package events

import (
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

func doubleBits(f float64) uint64    { return math.Float64bits(f) }
func fromDoubleBits(v uint64) float64 { return math.Float64frombits(v) }

// Field numbers for the hand-rolled protobuf wire encoding of one Event.
// There is no .proto/generated code here (the toolchain that would compile
// it isn't part of this build); protowire's Append/Consume primitives give
// the same length-prefixed varint/bytes wire format a generated message
// would, which is what the persisted replay snapshot actually needs.
const (
	fieldType      = 1
	fieldJobID     = 2
	fieldCategory  = 3
	fieldSequence  = 4
	fieldTimestamp = 5
	fieldFraction  = 6
	fieldStep      = 7
	fieldError     = 8
)

func appendEvent(b []byte, e Event) []byte {
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(e.Type))
	b = protowire.AppendTag(b, fieldJobID, protowire.BytesType)
	idBytes := e.JobID
	b = protowire.AppendBytes(b, idBytes[:])
	b = protowire.AppendTag(b, fieldCategory, protowire.BytesType)
	b = protowire.AppendString(b, string(e.Category))
	b = protowire.AppendTag(b, fieldSequence, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Sequence)
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Timestamp.UnixNano()))
	b = protowire.AppendTag(b, fieldFraction, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, doubleBits(e.Fraction))
	if e.Step != "" {
		b = protowire.AppendTag(b, fieldStep, protowire.BytesType)
		b = protowire.AppendString(b, e.Step)
	}
	if e.Error != "" {
		b = protowire.AppendTag(b, fieldError, protowire.BytesType)
		b = protowire.AppendString(b, e.Error)
	}
	return b
}

// MarshalSnapshot encodes events as a length-delimited sequence of
// wire-format Event messages, for persisting the replay buffer across
// restarts.
func MarshalSnapshot(evs []Event) []byte {
	var out []byte
	for _, e := range evs {
		msg := appendEvent(nil, e)
		out = protowire.AppendTag(out, 1, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}
	return out
}

// UnmarshalSnapshot decodes a buffer produced by MarshalSnapshot back into
// the ordered event slice.
func UnmarshalSnapshot(data []byte) ([]Event, error) {
	var out []Event
	for len(data) > 0 {
		_, _, tagLen := protowire.ConsumeTag(data)
		if tagLen < 0 {
			return nil, protowire.ParseError(tagLen)
		}
		data = data[tagLen:]
		msg, msgLen := protowire.ConsumeBytes(data)
		if msgLen < 0 {
			return nil, protowire.ParseError(msgLen)
		}
		data = data[msgLen:]
		e, err := parseEvent(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseEvent(b []byte) (Event, error) {
	var e Event
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return e, protowire.ParseError(tagLen)
		}
		b = b[tagLen:]
		switch num {
		case fieldType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Type = Kind(s)
			b = b[n:]
		case fieldJobID:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			id, err := uuid.FromBytes(raw)
			if err == nil {
				e.JobID = id
			}
			b = b[n:]
		case fieldCategory:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Category = Category(s)
			b = b[n:]
		case fieldSequence:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Sequence = v
			b = b[n:]
		case fieldTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Timestamp = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		case fieldFraction:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Fraction = fromDoubleBits(v)
			b = b[n:]
		case fieldStep:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Step = s
			b = b[n:]
		case fieldError:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Error = s
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return e, nil
}
