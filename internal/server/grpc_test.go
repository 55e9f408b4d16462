package server

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

func dialBufconn(t *testing.T, svc ReceiptService) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(svc, common.DiscardLogger())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receiptStruct(t *testing.T, payload string) *structpb.Struct {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &m))
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGRPCProcessAndGetPoints(t *testing.T) {
	ctx := context.Background()
	client := NewReceiptsClient(dialBufconn(t, newReceiptService(t)))

	id, err := client.ProcessReceipt(ctx, receiptStruct(t, cornerMarketReceipt))
	require.NoError(t, err)
	_, err = uuid.Parse(id.GetValue())
	require.NoError(t, err)

	pts, err := client.GetPoints(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(109), pts.GetValue())
}

func TestGRPCErrors(t *testing.T) {
	ctx := context.Background()
	client := NewReceiptsClient(dialBufconn(t, newReceiptService(t)))

	_, err := client.ProcessReceipt(ctx, receiptStruct(t, targetReceipt))
	require.NoError(t, err)

	_, err = client.ProcessReceipt(ctx, receiptStruct(t, targetReceipt))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.ProcessReceipt(ctx, receiptStruct(t, `{"retailer":"GameStop","total":"129.48"}`))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetPoints(ctx, wrapperspb.String(uuid.NewString()))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetPoints(ctx, wrapperspb.String("  "))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCInternalError(t *testing.T) {
	client := NewReceiptsClient(dialBufconn(t, unhealthyService{}))
	_, err := client.GetPoints(context.Background(), wrapperspb.String(uuid.NewString()))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestGRPCHealth(t *testing.T) {
	conn := dialBufconn(t, newReceiptService(t))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ReceiptsServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
