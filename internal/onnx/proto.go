// Package onnx serializes raug models into the ONNX interchange format.
package onnx

// ONNX protobuf data structures (hand-written, wire-compatible with
// onnx.proto; no protobuf runtime dependency).

// ONNX versions emitted by the exporter.
const (
	IRVersion    = 8
	OpsetVersion = 13
)

// TensorProto element data types used by the exporter.
const (
	DataTypeFloat = 1
)

// AttributeProto.type values.
const (
	AttrFloat  = 1
	AttrInt    = 2
	AttrString = 3
)

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	Domain     string
}

// AttributeProto represents a node attribute.
type AttributeProto struct {
	Name string
	Type int32 // AttrFloat, AttrInt, AttrString
	F    float32
	I    int64
	S    string
}

// TensorProto represents a weight tensor (initializer).
type TensorProto struct {
	Name     string
	DataType int32
	Dims     []int64
	RawData  []byte
}

// ValueInfoProto describes an input or output tensor specification.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto describes a tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes element type and shape.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: either a static value or a named
// dynamic axis (dim_param).
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// OperatorSetID declares an opset requirement.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key-value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}
