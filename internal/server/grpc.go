package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

const (
	ReceiptsServiceName  = "receipts.v1.ReceiptsService"
	ProcessReceiptMethod = "/" + ReceiptsServiceName + "/ProcessReceipt"
	GetPointsMethod      = "/" + ReceiptsServiceName + "/GetPoints"
)

// ReceiptsServer is the server API for receipts.v1.ReceiptsService. Messages
// are protobuf well-known types, so the service needs no generated code.
type ReceiptsServer interface {
	ProcessReceipt(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	GetPoints(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

var ReceiptsServiceDesc = grpc.ServiceDesc{
	ServiceName: ReceiptsServiceName,
	HandlerType: (*ReceiptsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessReceipt", Handler: processReceiptHandler},
		{MethodName: "GetPoints", Handler: getPointsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "receipts/v1/receipts.proto",
}

func processReceiptHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReceiptsServer).ProcessReceipt(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProcessReceiptMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReceiptsServer).ProcessReceipt(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getPointsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReceiptsServer).GetPoints(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPointsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReceiptsServer).GetPoints(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ReceiptsClient calls receipts.v1.ReceiptsService.
type ReceiptsClient struct {
	cc grpc.ClientConnInterface
}

func NewReceiptsClient(cc grpc.ClientConnInterface) *ReceiptsClient {
	return &ReceiptsClient{cc: cc}
}

func (c *ReceiptsClient) ProcessReceipt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ProcessReceiptMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReceiptsClient) GetPoints(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, GetPointsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewGRPCServer registers the receipts service and the standard health
// service. The health server is returned so callers can flip it on shutdown.
func NewGRPCServer(receipts ReceiptService, logger *slog.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLoggingInterceptor(logger)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ReceiptsServiceName, healthpb.HealthCheckResponse_SERVING)

	s.RegisterService(&ReceiptsServiceDesc, NewReceiptServer(receipts, logger))
	return s, hs
}

func unaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		log := logger.With("request_id", requestID)
		ctx = common.WithLogger(common.WithRequestID(ctx, requestID), log)

		resp, err := handler(ctx, req)
		log.Info("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
