package alert

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/config"
)

// The Classifier service exchanges google.protobuf.Struct messages shaped like
// ClassifyRequest / ClassifyResponse, so clients need no generated stubs.
const (
	classifierServiceName   = "sensorclassifier.Classifier"
	classifyFullMethod      = "/" + classifierServiceName + "/Classify"
	classifyBatchFullMethod = "/" + classifierServiceName + "/ClassifyBatch"
)

type ClassifierServer interface {
	Classify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClassifyBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterClassifierServer(s grpc.ServiceRegistrar, srv ClassifierServer) {
	s.RegisterService(&classifierServiceDesc, srv)
}

var classifierServiceDesc = grpc.ServiceDesc{
	ServiceName: classifierServiceName,
	HandlerType: (*ClassifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Classify", Handler: classifyHandler},
		{MethodName: "ClassifyBatch", Handler: classifyBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sensorclassifier/classifier.proto",
}

func classifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: classifyFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Classify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func classifyBatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).ClassifyBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: classifyBatchFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).ClassifyBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GrpcHandler serves the Classifier service from an Evaluator.
type GrpcHandler struct {
	ev *Evaluator
}

func NewGrpcHandler(ev *Evaluator) *GrpcHandler {
	return &GrpcHandler{ev: ev}
}

func (h *GrpcHandler) Classify(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeStruct(in)
	if err != nil {
		return nil, err
	}
	if req.Value == nil {
		return nil, status.Error(codes.InvalidArgument, errMissingValue.Error())
	}
	req.Readings = nil
	return h.evaluate(req)
}

func (h *GrpcHandler) ClassifyBatch(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeStruct(in)
	if err != nil {
		return nil, err
	}
	if req.Readings == nil {
		req.Readings = []float64{}
	}
	return h.evaluate(req)
}

func (h *GrpcHandler) evaluate(req ClassifyRequest) (*structpb.Struct, error) {
	resp, err := h.ev.Evaluate(req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(resp)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, classifier.ErrOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, config.ErrUnknownSensor):
		return status.Error(codes.NotFound, err.Error())
	case isBadRequest(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func decodeStruct(in *structpb.Struct) (ClassifyRequest, error) {
	var req ClassifyRequest
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return req, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, status.Error(codes.InvalidArgument, err.Error())
	}
	return req, nil
}

func encodeStruct(resp ClassifyResponse) (*structpb.Struct, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ClassifierClient calls a remote Classifier service.
type ClassifierClient struct {
	cc grpc.ClientConnInterface
}

func NewClassifierClient(cc grpc.ClientConnInterface) *ClassifierClient {
	return &ClassifierClient{cc: cc}
}

func (c *ClassifierClient) Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, classifyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClassifierClient) ClassifyBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, classifyBatchFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
