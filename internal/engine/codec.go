// Package engine connects the evaluator to environments served over gRPC.
//
// Messages are google.protobuf.Struct values, so the service needs no
// generated stubs:
//
//	GetCapabilities {env_id}          -> {actions, height, width}
//	Reset           {env_id}          -> {obs}
//	Step            {env_id, action}  -> {obs, reward, done}
//
// obs is the frame in row-major order.
package engine

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName = "cartridge.engine.v1.Engine"

	methodGetCapabilities = "/" + serviceName + "/GetCapabilities"
	methodReset           = "/" + serviceName + "/Reset"
	methodStep            = "/" + serviceName + "/Step"
)

func encodeFrame(frame *mat.Dense) *structpb.Value {
	r, c := frame.Dims()
	values := make([]*structpb.Value, 0, r*c)
	for i := 0; i < r; i++ {
		for _, v := range frame.RawRowView(i) {
			values = append(values, structpb.NewNumberValue(v))
		}
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func decodeFrame(msg *structpb.Struct, height, width int) (*mat.Dense, error) {
	values := msg.GetFields()["obs"].GetListValue().GetValues()
	if len(values) != height*width {
		return nil, fmt.Errorf("observation has %d values, want %dx%d", len(values), height, width)
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = v.GetNumberValue()
	}
	return mat.NewDense(height, width, data), nil
}

func intField(msg *structpb.Struct, name string) (int, error) {
	v, ok := msg.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	return int(v.GetNumberValue()), nil
}
