package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/encodeous/nyroute/state"
	"google.golang.org/protobuf/encoding/protowire"
)

// Routing messages use the protobuf wire format so they can be read by any
// protobuf decoder, but are encoded by hand since they are tiny.
//
//	message Vector {
//	  uint64 sender = 1;
//	  sint64 seq = 2;
//	  repeated Entry entries = 3;
//	}
//	message Entry {
//	  uint64 dest = 1;
//	  sint64 cost = 2;
//	  repeated uint64 path = 3 [packed = true];
//	}
//	message Link {
//	  uint64 sender = 1;
//	  uint64 src = 2;
//	  uint64 dest = 3;
//	  sint64 latency = 4;
//	  sint64 seq = 5;
//	}

const (
	fieldSender  protowire.Number = 1
	fieldSeq     protowire.Number = 2
	fieldEntries protowire.Number = 3

	fieldEntryDest protowire.Number = 1
	fieldEntryCost protowire.Number = 2
	fieldEntryPath protowire.Number = 3

	fieldLinkSender  protowire.Number = 1
	fieldLinkSrc     protowire.Number = 2
	fieldLinkDest    protowire.Number = 3
	fieldLinkLatency protowire.Number = 4
	fieldLinkSeq     protowire.Number = 5
)

// VectorMessage is the distance vector a node broadcasts to its neighbours.
type VectorMessage struct {
	Sender state.NodeId
	Vector DistanceVector
	Seq    int64
}

// LinkMessage carries a single link update or removal, flooded hop by hop.
type LinkMessage struct {
	Sender  state.NodeId
	Src     state.NodeId
	Dest    state.NodeId
	Latency state.Cost
	Seq     int64
}

func (m LinkMessage) String() string {
	return fmt.Sprintf("(from: %d, %d <-> %d, latency: %d, seq: %d)", m.Sender, m.Src, m.Dest, m.Latency, m.Seq)
}

func appendNodeId(b []byte, num protowire.Number, id state.NodeId) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(id))
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func EncodeVector(m VectorMessage) []byte {
	var b []byte
	b = appendNodeId(b, fieldSender, m.Sender)
	b = appendSint(b, fieldSeq, m.Seq)
	for _, dest := range sortedKeys(m.Vector) {
		pc := m.Vector[dest]
		var entry []byte
		entry = appendNodeId(entry, fieldEntryDest, dest)
		entry = appendSint(entry, fieldEntryCost, int64(pc.Cost))
		if len(pc.Path) > 0 {
			var packed []byte
			for _, hop := range pc.Path {
				packed = protowire.AppendVarint(packed, uint64(hop))
			}
			entry = protowire.AppendTag(entry, fieldEntryPath, protowire.BytesType)
			entry = protowire.AppendBytes(entry, packed)
		}
		b = protowire.AppendTag(b, fieldEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func EncodeLink(m LinkMessage) []byte {
	var b []byte
	b = appendNodeId(b, fieldLinkSender, m.Sender)
	b = appendNodeId(b, fieldLinkSrc, m.Src)
	b = appendNodeId(b, fieldLinkDest, m.Dest)
	b = appendSint(b, fieldLinkLatency, int64(m.Latency))
	b = appendSint(b, fieldLinkSeq, m.Seq)
	return b
}

// fieldVisitor is called for every field of a message. It returns the number
// of bytes consumed from b, or a negative protowire error code.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]
		n, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformedMessage, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func toNodeId(v uint64) (state.NodeId, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("%w: node id %d out of range", ErrMalformedMessage, v)
	}
	return state.NodeId(v), nil
}

// consumeNodeId reads a varint node id into dst.
func consumeNodeId(typ protowire.Type, b []byte, dst *state.NodeId) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: expected varint, got wire type %d", ErrMalformedMessage, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	id, err := toNodeId(v)
	if err != nil {
		return 0, err
	}
	*dst = id
	return n, nil
}

func consumeSint(typ protowire.Type, b []byte, dst *int64) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: expected varint, got wire type %d", ErrMalformedMessage, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = protowire.DecodeZigZag(v)
	return n, nil
}

func decodeEntry(b []byte) (state.NodeId, PathCost, error) {
	var dest state.NodeId
	var cost int64
	path := make([]state.NodeId, 0)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldEntryDest:
			return consumeNodeId(typ, b, &dest)
		case fieldEntryCost:
			return consumeSint(typ, b, &cost)
		case fieldEntryPath:
			if typ == protowire.VarintType {
				// unpacked encoding is also valid protobuf
				var hop state.NodeId
				n, err := consumeNodeId(typ, b, &hop)
				if err == nil && n > 0 {
					path = append(path, hop)
				}
				return n, err
			}
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return m, nil
				}
				hop, err := toNodeId(v)
				if err != nil {
					return 0, err
				}
				path = append(path, hop)
				packed = packed[m:]
			}
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return dest, PathCost{Cost: state.Cost(cost), Path: path}, err
}

func DecodeVector(b []byte) (VectorMessage, error) {
	m := VectorMessage{Vector: make(DistanceVector)}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldSender:
			return consumeNodeId(typ, b, &m.Sender)
		case fieldSeq:
			return consumeSint(typ, b, &m.Seq)
		case fieldEntries:
			if typ != protowire.BytesType {
				return 0, fmt.Errorf("%w: vector entry has wire type %d", ErrMalformedMessage, typ)
			}
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			dest, pc, err := decodeEntry(raw)
			if err != nil {
				return 0, err
			}
			m.Vector[dest] = pc
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return VectorMessage{}, err
	}
	return m, nil
}

func DecodeLink(b []byte) (LinkMessage, error) {
	var m LinkMessage
	var latency int64
	seen := make([]protowire.Number, 0, 5)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		seen = append(seen, num)
		switch num {
		case fieldLinkSender:
			return consumeNodeId(typ, b, &m.Sender)
		case fieldLinkSrc:
			return consumeNodeId(typ, b, &m.Src)
		case fieldLinkDest:
			return consumeNodeId(typ, b, &m.Dest)
		case fieldLinkLatency:
			return consumeSint(typ, b, &latency)
		case fieldLinkSeq:
			return consumeSint(typ, b, &m.Seq)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return LinkMessage{}, err
	}
	for _, required := range []protowire.Number{fieldLinkSrc, fieldLinkDest, fieldLinkLatency} {
		if !slices.Contains(seen, required) {
			return LinkMessage{}, fmt.Errorf("%w: missing field %d", ErrMalformedMessage, required)
		}
	}
	m.Latency = state.Cost(latency)
	if m.Latency < state.LinkRemoved {
		return LinkMessage{}, fmt.Errorf("%w: negative latency %d", ErrMalformedMessage, m.Latency)
	}
	return m, nil
}
