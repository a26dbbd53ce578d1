package onnx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/peuBouzon/raug/internal/backend/cpu"
	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/tensor"
)

type CPUBackend = *cpu.CPUBackend

func sampleModel() *ModelProto {
	return &ModelProto{
		IRVersion:       IRVersion,
		ProducerName:    "raug",
		ProducerVersion: "0.3.0",
		OpsetImport:     []OperatorSetID{{Version: OpsetVersion}},
		MetadataProps:   []StringStringEntry{{Key: "source", Value: "test"}},
		Graph: &GraphProto{
			Name: "g",
			Nodes: []NodeProto{
				{
					Name:    "Gemm_0",
					OpType:  "Gemm",
					Inputs:  []string{"x", "Gemm_0.weight", "Gemm_0.bias"},
					Outputs: []string{"y"},
					Attributes: []AttributeProto{
						{Name: "alpha", Type: AttrFloat, F: 1.0},
						{Name: "transB", Type: AttrInt, I: 1},
						{Name: "mode", Type: AttrString, S: "dense"},
					},
				},
			},
			Initializers: []TensorProto{
				{
					Name:     "Gemm_0.weight",
					DataType: DataTypeFloat,
					Dims:     []int64{2, 3},
					RawData:  []byte{0, 0, 128, 63, 0, 0, 0, 64, 0, 0, 64, 64, 0, 0, 128, 64, 0, 0, 160, 64, 0, 0, 192, 64},
				},
			},
			Inputs: []ValueInfoProto{{
				Name: "x",
				Type: &TypeProto{TensorType: &TensorTypeProto{
					ElemType: DataTypeFloat,
					Shape: &TensorShapeProto{Dims: []DimensionProto{
						{DimParam: "batch_size"},
						{DimValue: 3},
					}},
				}},
			}},
			Outputs: []ValueInfoProto{{
				Name: "y",
				Type: &TypeProto{TensorType: &TensorTypeProto{
					ElemType: DataTypeFloat,
					Shape: &TensorShapeProto{Dims: []DimensionProto{
						{DimParam: "batch_size"},
						{DimValue: 2},
					}},
				}},
			}},
		},
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	model := sampleModel()
	parsed, err := Parse(Marshal(model))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if parsed.IRVersion != model.IRVersion {
		t.Errorf("IRVersion: expected %d, got %d", model.IRVersion, parsed.IRVersion)
	}
	if parsed.ProducerName != "raug" || parsed.ProducerVersion != "0.3.0" {
		t.Errorf("producer mismatch: %q %q", parsed.ProducerName, parsed.ProducerVersion)
	}
	if len(parsed.OpsetImport) != 1 || parsed.OpsetImport[0].Version != OpsetVersion {
		t.Errorf("opset mismatch: %v", parsed.OpsetImport)
	}
	if len(parsed.MetadataProps) != 1 || parsed.MetadataProps[0].Key != "source" {
		t.Errorf("metadata mismatch: %v", parsed.MetadataProps)
	}

	graph := parsed.Graph
	if graph == nil {
		t.Fatal("graph missing")
	}
	if graph.Name != "g" {
		t.Errorf("graph name: expected g, got %q", graph.Name)
	}
	if len(graph.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(graph.Nodes))
	}

	node := graph.Nodes[0]
	if node.OpType != "Gemm" || node.Name != "Gemm_0" {
		t.Errorf("node mismatch: %+v", node)
	}
	if len(node.Inputs) != 3 || node.Inputs[1] != "Gemm_0.weight" {
		t.Errorf("node inputs mismatch: %v", node.Inputs)
	}
	if len(node.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(node.Attributes))
	}
	for _, attr := range node.Attributes {
		switch attr.Name {
		case "alpha":
			if attr.Type != AttrFloat || attr.F != 1.0 {
				t.Errorf("alpha mismatch: %+v", attr)
			}
		case "transB":
			if attr.Type != AttrInt || attr.I != 1 {
				t.Errorf("transB mismatch: %+v", attr)
			}
		case "mode":
			if attr.Type != AttrString || attr.S != "dense" {
				t.Errorf("mode mismatch: %+v", attr)
			}
		default:
			t.Errorf("unexpected attribute %q", attr.Name)
		}
	}

	if len(graph.Initializers) != 1 {
		t.Fatalf("expected 1 initializer, got %d", len(graph.Initializers))
	}
	init := graph.Initializers[0]
	if init.DataType != DataTypeFloat {
		t.Errorf("initializer dtype: %d", init.DataType)
	}
	if len(init.Dims) != 2 || init.Dims[0] != 2 || init.Dims[1] != 3 {
		t.Errorf("initializer dims: %v", init.Dims)
	}
	if !bytes.Equal(init.RawData, model.Graph.Initializers[0].RawData) {
		t.Error("initializer payload mismatch")
	}

	inDims := graph.Inputs[0].Type.TensorType.Shape.Dims
	if inDims[0].DimParam != "batch_size" || inDims[1].DimValue != 3 {
		t.Errorf("input dims mismatch: %+v", inDims)
	}
	outDims := graph.Outputs[0].Type.TensorType.Shape.Dims
	if outDims[0].DimParam != "batch_size" || outDims[1].DimValue != 2 {
		t.Errorf("output dims mismatch: %+v", outDims)
	}
}

func TestParseRejectsTruncatedField(t *testing.T) {
	// Graph field (7, length-delimited) claiming 127 bytes with none present.
	if _, err := Parse([]byte{0x3a, 0x7f}); err == nil {
		t.Fatal("expected error for truncated field")
	}
}

func TestParseRejectsOversizedLengthField(t *testing.T) {
	// producer_name (field 2, length-delimited) with a length varint of
	// 1<<63, which would wrap negative if converted to int before the
	// bounds check. Must error, not panic.
	data := []byte{0x12, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for oversized length field")
	}
}

func TestZeroDimValueSurvivesRoundTrip(t *testing.T) {
	// dim_value = 0 must be encoded despite being the proto3 default, or a
	// zero-size static axis would come back as absent.
	vi := ValueInfoProto{
		Name: "x",
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: DataTypeFloat,
			Shape:    &TensorShapeProto{Dims: []DimensionProto{{DimValue: 0}}},
		}},
	}
	model := &ModelProto{
		IRVersion: IRVersion,
		Graph:     &GraphProto{Name: "g", Inputs: []ValueInfoProto{vi}},
	}
	parsed, err := Parse(Marshal(model))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dims := parsed.Graph.Inputs[0].Type.TensorType.Shape.Dims
	if len(dims) != 1 {
		t.Fatalf("expected 1 dim, got %d", len(dims))
	}
	if dims[0].DimValue != 0 || dims[0].DimParam != "" {
		t.Errorf("dim mismatch: %+v", dims[0])
	}
}

// passthrough implements nn.Module but is unknown to the exporter.
type passthrough struct{}

func (passthrough) Forward(in *tensor.Tensor[float32, CPUBackend]) *tensor.Tensor[float32, CPUBackend] {
	return in
}
func (passthrough) Parameters() []*nn.Parameter[CPUBackend] { return nil }

func (passthrough) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (passthrough) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func TestExportRejectsUnknownModule(t *testing.T) {
	backend := cpu.New()
	sample := tensor.Randn(tensor.Shape{1, 3}, backend)

	_, err := Export[CPUBackend](passthrough{}, sample, []string{"input"}, []string{"output"}, nil)
	if !errors.Is(err, ErrUnsupportedModule) {
		t.Fatalf("expected ErrUnsupportedModule, got %v", err)
	}
}

func TestExportEmptyModelEmitsIdentity(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[CPUBackend]()
	sample := tensor.Randn(tensor.Shape{2, 3}, backend)

	data, err := Export[CPUBackend](model, sample, []string{"input"}, []string{"output"}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	nodes := parsed.Graph.Nodes
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0].OpType != "Identity" {
		t.Errorf("expected Identity, got %q", nodes[0].OpType)
	}
	if len(nodes[0].Inputs) != 1 || nodes[0].Inputs[0] != "input" {
		t.Errorf("node inputs mismatch: %v", nodes[0].Inputs)
	}
	if len(nodes[0].Outputs) != 1 || nodes[0].Outputs[0] != "output" {
		t.Errorf("node outputs mismatch: %v", nodes[0].Outputs)
	}
}
