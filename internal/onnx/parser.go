package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Parse decodes ONNX protobuf bytes into a ModelProto. It understands the
// subset of onnx.proto the exporter emits, enough to verify artifacts
// round-trip and to inspect exported graphs.
func Parse(data []byte) (*ModelProto, error) {
	p := &parser{data: data}
	model := &ModelProto{}
	if err := p.readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

func (p *parser) readModelProto(m *ModelProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			return p.intoVarint(&m.IRVersion)
		case 2:
			return p.intoString(&m.ProducerName)
		case 3:
			return p.intoString(&m.ProducerVersion)
		case 4:
			return p.intoString(&m.Domain)
		case 5:
			return p.intoVarint(&m.ModelVersion)
		case 6:
			return p.intoString(&m.DocString)
		case 7:
			m.Graph = &GraphProto{}
			return p.intoMessage(func(sub *parser) error { return sub.readGraphProto(m.Graph) })
		case 8:
			var opset OperatorSetID
			if err := p.intoMessage(func(sub *parser) error {
				return sub.fields(func(f, w int) error {
					switch f {
					case 1:
						return sub.intoString(&opset.Domain)
					case 2:
						return sub.intoVarint(&opset.Version)
					}
					return sub.skipField(w)
				})
			}); err != nil {
				return err
			}
			m.OpsetImport = append(m.OpsetImport, opset)
			return nil
		case 14:
			var entry StringStringEntry
			if err := p.intoMessage(func(sub *parser) error {
				return sub.fields(func(f, w int) error {
					switch f {
					case 1:
						return sub.intoString(&entry.Key)
					case 2:
						return sub.intoString(&entry.Value)
					}
					return sub.skipField(w)
				})
			}); err != nil {
				return err
			}
			m.MetadataProps = append(m.MetadataProps, entry)
			return nil
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readGraphProto(g *GraphProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			var node NodeProto
			if err := p.intoMessage(func(sub *parser) error { return sub.readNodeProto(&node) }); err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, node)
			return nil
		case 2:
			return p.intoString(&g.Name)
		case 5:
			var init TensorProto
			if err := p.intoMessage(func(sub *parser) error { return sub.readTensorProto(&init) }); err != nil {
				return err
			}
			g.Initializers = append(g.Initializers, init)
			return nil
		case 11:
			var vi ValueInfoProto
			if err := p.intoMessage(func(sub *parser) error { return sub.readValueInfoProto(&vi) }); err != nil {
				return err
			}
			g.Inputs = append(g.Inputs, vi)
			return nil
		case 12:
			var vi ValueInfoProto
			if err := p.intoMessage(func(sub *parser) error { return sub.readValueInfoProto(&vi) }); err != nil {
				return err
			}
			g.Outputs = append(g.Outputs, vi)
			return nil
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readNodeProto(n *NodeProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			var s string
			if err := p.intoString(&s); err != nil {
				return err
			}
			n.Inputs = append(n.Inputs, s)
			return nil
		case 2:
			var s string
			if err := p.intoString(&s); err != nil {
				return err
			}
			n.Outputs = append(n.Outputs, s)
			return nil
		case 3:
			return p.intoString(&n.Name)
		case 4:
			return p.intoString(&n.OpType)
		case 5:
			var attr AttributeProto
			if err := p.intoMessage(func(sub *parser) error { return sub.readAttributeProto(&attr) }); err != nil {
				return err
			}
			n.Attributes = append(n.Attributes, attr)
			return nil
		case 7:
			return p.intoString(&n.Domain)
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readAttributeProto(a *AttributeProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			return p.intoString(&a.Name)
		case 2:
			bits, err := p.readFixed32()
			if err != nil {
				return err
			}
			a.F = math.Float32frombits(bits)
			return nil
		case 3:
			return p.intoVarint(&a.I)
		case 4:
			return p.intoString(&a.S)
		case 20:
			var v int64
			if err := p.intoVarint(&v); err != nil {
				return err
			}
			a.Type = int32(v)
			return nil
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readTensorProto(t *TensorProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			var v int64
			if err := p.intoVarint(&v); err != nil {
				return err
			}
			t.Dims = append(t.Dims, v)
			return nil
		case 2:
			var v int64
			if err := p.intoVarint(&v); err != nil {
				return err
			}
			t.DataType = int32(v)
			return nil
		case 8:
			return p.intoString(&t.Name)
		case 9:
			data, err := p.readBytes()
			if err != nil {
				return err
			}
			t.RawData = append([]byte(nil), data...)
			return nil
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readValueInfoProto(vi *ValueInfoProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			return p.intoString(&vi.Name)
		case 2:
			vi.Type = &TypeProto{}
			return p.intoMessage(func(sub *parser) error {
				return sub.fields(func(f, w int) error {
					if f == 1 {
						vi.Type.TensorType = &TensorTypeProto{}
						return sub.intoMessage(func(inner *parser) error {
							return inner.readTensorTypeProto(vi.Type.TensorType)
						})
					}
					return sub.skipField(w)
				})
			})
		}
		return p.skipField(wireType)
	})
}

func (p *parser) readTensorTypeProto(tt *TensorTypeProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1:
			var v int64
			if err := p.intoVarint(&v); err != nil {
				return err
			}
			tt.ElemType = int32(v)
			return nil
		case 2:
			tt.Shape = &TensorShapeProto{}
			return p.intoMessage(func(sub *parser) error {
				return sub.fields(func(f, w int) error {
					if f == 1 {
						var dim DimensionProto
						if err := sub.intoMessage(func(inner *parser) error {
							return inner.fields(func(df, dw int) error {
								switch df {
								case 1:
									return inner.intoVarint(&dim.DimValue)
								case 2:
									return inner.intoString(&dim.DimParam)
								}
								return inner.skipField(dw)
							})
						}); err != nil {
							return err
						}
						tt.Shape.Dims = append(tt.Shape.Dims, dim)
						return nil
					}
					return sub.skipField(w)
				})
			})
		}
		return p.skipField(wireType)
	})
}

// --- wire primitives ---

// fields iterates tag/value pairs until the buffer is exhausted.
func (p *parser) fields(handle func(fieldNum, wireType int) error) error {
	for p.pos < len(p.data) {
		tag, err := p.readVarint()
		if err != nil {
			return err
		}
		if err := handle(int(tag>>3), int(tag&0x7)); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readVarint() (uint64, error) {
	v, n := binary.Uvarint(p.data[p.pos:])
	if n <= 0 {
		return 0, errors.New("invalid varint")
	}
	p.pos += n
	return v, nil
}

func (p *parser) intoVarint(dst *int64) error {
	v, err := p.readVarint()
	if err != nil {
		return err
	}
	*dst = int64(v)
	return nil
}

func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	// Compare in uint64 space: a hostile length near 2^64 must not wrap
	// negative through int conversion and slip past the check.
	if length > uint64(len(p.data)-p.pos) {
		return nil, errors.New("bytes field exceeds buffer")
	}
	data := p.data[p.pos : p.pos+int(length)]
	p.pos += int(length)
	return data, nil
}

func (p *parser) intoString(dst *string) error {
	data, err := p.readBytes()
	if err != nil {
		return err
	}
	*dst = string(data)
	return nil
}

func (p *parser) intoMessage(read func(sub *parser) error) error {
	data, err := p.readBytes()
	if err != nil {
		return err
	}
	return read(&parser{data: data})
}

func (p *parser) readFixed32() (uint32, error) {
	if p.pos+4 > len(p.data) {
		return 0, errors.New("fixed32 field exceeds buffer")
	}
	v := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return v, nil
}

func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		_, err := p.readFixed32()
		return err
	case 1: // fixed64
		if p.pos+8 > len(p.data) {
			return errors.New("fixed64 field exceeds buffer")
		}
		p.pos += 8
		return nil
	default:
		return fmt.Errorf("unknown wire type %d", wireType)
	}
}
