package onnx

import (
	"errors"
	"fmt"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/tensor"
)

// DynamicAxes declares which dimensions of a named graph input or output are
// variable-length, e.g. {"img": {0: "batch_size"}}. Declared axes are
// emitted as dim_param instead of a static dim_value.
type DynamicAxes map[string]map[int]string

// Export errors.
var (
	ErrUnsupportedModule = errors.New("module type not supported by ONNX export")
	ErrArity             = errors.New("input/output name count does not match model arity")
)

const producerName = "raug"

// Export serializes a model into ONNX bytes.
//
// sample must be shaped like one real forward-pass input: it is run through
// the model to validate shapes and derive the output specification. The
// model is exported exactly as it behaves at call time, so callers are
// expected to have switched it to evaluation mode first.
func Export[B tensor.Backend](model nn.Module[B], sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes DynamicAxes) ([]byte, error) {
	// raug modules take one input and produce one output.
	if len(inputNames) != 1 || len(outputNames) != 1 {
		return nil, fmt.Errorf("%w: got %d input and %d output names, model takes 1 and 1",
			ErrArity, len(inputNames), len(outputNames))
	}

	output, err := runForward(model, sample)
	if err != nil {
		return nil, err
	}

	b := &builder{}
	last, err := addModule(b, model, inputNames[0])
	if err != nil {
		return nil, err
	}
	b.bindOutput(last, inputNames[0], outputNames[0])

	inputInfo, err := valueInfo(inputNames[0], sample.Shape(), dynamicAxes)
	if err != nil {
		return nil, err
	}
	outputInfo, err := valueInfo(outputNames[0], output.Shape(), dynamicAxes)
	if err != nil {
		return nil, err
	}

	graph := &GraphProto{
		Name:         "raug_export",
		Nodes:        b.nodes,
		Inputs:       []ValueInfoProto{inputInfo},
		Outputs:      []ValueInfoProto{outputInfo},
		Initializers: b.initializers,
	}

	model2 := &ModelProto{
		IRVersion:    IRVersion,
		ProducerName: producerName,
		OpsetImport:  []OperatorSetID{{Version: OpsetVersion}},
		Graph:        graph,
	}
	return Marshal(model2), nil
}

// runForward validates the sample against the model. Module forward passes
// panic on shape mismatch; surface that as an export error instead.
func runForward[B tensor.Backend](model nn.Module[B], sample *tensor.Tensor[float32, B]) (out *tensor.Tensor[float32, B], err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("sample input does not match model: %v", r)
		}
	}()
	return model.Forward(sample), nil
}

// builder accumulates graph nodes and weight initializers during the module
// walk.
type builder struct {
	nodes        []NodeProto
	initializers []TensorProto
	counter      int
}

func (b *builder) freshName(op string) string {
	b.counter++
	return fmt.Sprintf("%s_%d", op, b.counter-1)
}

func (b *builder) node(op, input string, extraInputs []string, attrs []AttributeProto) string {
	name := b.freshName(op)
	out := name + "_out"
	b.nodes = append(b.nodes, NodeProto{
		Name:       name,
		OpType:     op,
		Inputs:     append([]string{input}, extraInputs...),
		Outputs:    []string{out},
		Attributes: attrs,
	})
	return out
}

func (b *builder) initializer(name string, raw *tensor.RawTensor) string {
	dims := make([]int64, len(raw.Shape()))
	for i, d := range raw.Shape() {
		dims[i] = int64(d)
	}
	b.initializers = append(b.initializers, TensorProto{
		Name:     name,
		DataType: DataTypeFloat,
		Dims:     dims,
		RawData:  append([]byte(nil), raw.Data()...),
	})
	return name
}

// bindOutput renames the graph's final tensor to the caller's output name.
// A model with no nodes (e.g. an empty Sequential) gets an Identity node so
// the output name still resolves.
func (b *builder) bindOutput(last, inputName, outputName string) {
	if len(b.nodes) == 0 {
		b.nodes = append(b.nodes, NodeProto{
			Name:    b.freshName("Identity"),
			OpType:  "Identity",
			Inputs:  []string{inputName},
			Outputs: []string{outputName},
		})
		return
	}
	final := &b.nodes[len(b.nodes)-1]
	for i, out := range final.Outputs {
		if out == last {
			final.Outputs[i] = outputName
		}
	}
}

// addModule emits the ONNX nodes for one module and returns the name of its
// output tensor.
func addModule[B tensor.Backend](b *builder, m nn.Module[B], input string) (string, error) {
	switch mod := any(m).(type) {
	case *nn.Sequential[B]:
		current := input
		for _, child := range mod.Modules() {
			next, err := addModule(b, child, current)
			if err != nil {
				return "", err
			}
			current = next
		}
		return current, nil

	case *nn.DataParallel[B]:
		// The wrapper is a training construct; export the inner model.
		return addModule(b, mod.Module(), input)

	case *nn.Linear[B]:
		name := b.freshName("Gemm")
		weight := b.initializer(name+".weight", mod.Weight().Tensor().Raw())
		bias := b.initializer(name+".bias", mod.Bias().Tensor().Raw())
		out := name + "_out"
		b.nodes = append(b.nodes, NodeProto{
			Name:    name,
			OpType:  "Gemm",
			Inputs:  []string{input, weight, bias},
			Outputs: []string{out},
			Attributes: []AttributeProto{
				{Name: "alpha", Type: AttrFloat, F: 1.0},
				{Name: "beta", Type: AttrFloat, F: 1.0},
				{Name: "transB", Type: AttrInt, I: 1},
			},
		})
		return out, nil

	case *nn.ReLU[B]:
		return b.node("Relu", input, nil, nil), nil

	case *nn.Sigmoid[B]:
		return b.node("Sigmoid", input, nil, nil), nil

	case *nn.Tanh[B]:
		return b.node("Tanh", input, nil, nil), nil

	case *nn.Flatten[B]:
		return b.node("Flatten", input, nil, []AttributeProto{
			{Name: "axis", Type: AttrInt, I: 1},
		}), nil

	case *nn.Dropout[B]:
		// Inference graphs carry no dropout; emit a pass-through.
		return b.node("Identity", input, nil, nil), nil

	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedModule, m)
	}
}

// valueInfo builds the tensor specification for a graph input or output,
// substituting declared dynamic axes.
func valueInfo(name string, shape tensor.Shape, dynamicAxes DynamicAxes) (ValueInfoProto, error) {
	dims := make([]DimensionProto, len(shape))
	for i, d := range shape {
		dims[i] = DimensionProto{DimValue: int64(d)}
	}
	for axis, param := range dynamicAxes[name] {
		if axis < 0 || axis >= len(dims) {
			return ValueInfoProto{}, fmt.Errorf("dynamic axis %d out of range for %q (rank %d)", axis, name, len(dims))
		}
		dims[axis] = DimensionProto{DimParam: param}
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{
			TensorType: &TensorTypeProto{
				ElemType: DataTypeFloat,
				Shape:    &TensorShapeProto{Dims: dims},
			},
		},
	}, nil
}
