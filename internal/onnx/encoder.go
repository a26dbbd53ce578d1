package onnx

import (
	"encoding/binary"
	"math"
)

// Marshal encodes a ModelProto into ONNX protobuf wire format.
//
// The encoder is hand-written, the mirror image of the hand-written parser
// used for import: each message is serialized field by field with the field
// numbers from onnx.proto.
func Marshal(m *ModelProto) []byte {
	var e encoder
	e.writeModelProto(m)
	return e.buf
}

// Protobuf wire types.
const (
	wireVarint = 0
	wireBytes  = 2
	wire32Bit  = 5
)

type encoder struct {
	buf []byte
}

func (e *encoder) writeModelProto(m *ModelProto) {
	e.varintField(1, m.IRVersion)
	e.stringField(2, m.ProducerName)
	e.stringField(3, m.ProducerVersion)
	e.stringField(4, m.Domain)
	e.varintField(5, m.ModelVersion)
	e.stringField(6, m.DocString)
	if m.Graph != nil {
		e.messageField(7, func(sub *encoder) { sub.writeGraphProto(m.Graph) })
	}
	for i := range m.OpsetImport {
		opset := &m.OpsetImport[i]
		e.messageField(8, func(sub *encoder) {
			sub.stringField(1, opset.Domain)
			sub.varintField(2, opset.Version)
		})
	}
	for i := range m.MetadataProps {
		prop := &m.MetadataProps[i]
		e.messageField(14, func(sub *encoder) {
			sub.stringField(1, prop.Key)
			sub.stringField(2, prop.Value)
		})
	}
}

func (e *encoder) writeGraphProto(g *GraphProto) {
	for i := range g.Nodes {
		node := &g.Nodes[i]
		e.messageField(1, func(sub *encoder) { sub.writeNodeProto(node) })
	}
	e.stringField(2, g.Name)
	for i := range g.Initializers {
		init := &g.Initializers[i]
		e.messageField(5, func(sub *encoder) { sub.writeTensorProto(init) })
	}
	for i := range g.Inputs {
		vi := &g.Inputs[i]
		e.messageField(11, func(sub *encoder) { sub.writeValueInfoProto(vi) })
	}
	for i := range g.Outputs {
		vi := &g.Outputs[i]
		e.messageField(12, func(sub *encoder) { sub.writeValueInfoProto(vi) })
	}
}

func (e *encoder) writeNodeProto(n *NodeProto) {
	for _, in := range n.Inputs {
		e.stringField(1, in)
	}
	for _, out := range n.Outputs {
		e.stringField(2, out)
	}
	e.stringField(3, n.Name)
	e.stringField(4, n.OpType)
	for i := range n.Attributes {
		attr := &n.Attributes[i]
		e.messageField(5, func(sub *encoder) { sub.writeAttributeProto(attr) })
	}
	e.stringField(7, n.Domain)
}

func (e *encoder) writeAttributeProto(a *AttributeProto) {
	e.stringField(1, a.Name)
	switch a.Type {
	case AttrFloat:
		e.floatField(2, a.F)
	case AttrInt:
		e.varintField(3, a.I)
	case AttrString:
		e.stringField(4, a.S)
	}
	e.varintField(20, int64(a.Type))
}

func (e *encoder) writeTensorProto(t *TensorProto) {
	for _, dim := range t.Dims {
		e.varintField(1, dim)
	}
	e.varintField(2, int64(t.DataType))
	e.stringField(8, t.Name)
	e.bytesField(9, t.RawData)
}

func (e *encoder) writeValueInfoProto(vi *ValueInfoProto) {
	e.stringField(1, vi.Name)
	if vi.Type != nil && vi.Type.TensorType != nil {
		tt := vi.Type.TensorType
		e.messageField(2, func(sub *encoder) {
			sub.messageField(1, func(inner *encoder) {
				inner.varintField(1, int64(tt.ElemType))
				if tt.Shape != nil {
					inner.messageField(2, func(shape *encoder) {
						for i := range tt.Shape.Dims {
							dim := &tt.Shape.Dims[i]
							shape.messageField(1, func(d *encoder) {
								if dim.DimParam != "" {
									d.stringField(2, dim.DimParam)
								} else {
									d.forceVarintField(1, dim.DimValue)
								}
							})
						}
					})
				}
			})
		})
	}
}

// --- wire primitives ---

func (e *encoder) tag(fieldNum, wireType int) {
	e.varint(uint64(fieldNum)<<3 | uint64(wireType))
}

func (e *encoder) varint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// varintField emits a varint field, omitting zero values (proto3 default).
func (e *encoder) varintField(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	e.forceVarintField(fieldNum, v)
}

// forceVarintField emits a varint field even when zero, for oneof members
// where presence itself is meaningful.
func (e *encoder) forceVarintField(fieldNum int, v int64) {
	e.tag(fieldNum, wireVarint)
	e.varint(uint64(v))
}

func (e *encoder) stringField(fieldNum int, s string) {
	if s == "" {
		return
	}
	e.tag(fieldNum, wireBytes)
	e.varint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) bytesField(fieldNum int, b []byte) {
	if len(b) == 0 {
		return
	}
	e.tag(fieldNum, wireBytes)
	e.varint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) floatField(fieldNum int, f float32) {
	e.tag(fieldNum, wire32Bit)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(f))
}

// messageField encodes a nested message with its length prefix.
func (e *encoder) messageField(fieldNum int, write func(sub *encoder)) {
	var sub encoder
	write(&sub)
	e.tag(fieldNum, wireBytes)
	e.varint(uint64(len(sub.buf)))
	e.buf = append(e.buf, sub.buf...)
}
