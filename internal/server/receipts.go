package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

type ReceiptServer struct {
	receipts ReceiptService
	logger   *slog.Logger
}

var _ ReceiptsServer = (*ReceiptServer)(nil)

func NewReceiptServer(receipts ReceiptService, logger *slog.Logger) *ReceiptServer {
	return &ReceiptServer{
		receipts: receipts,
		logger:   logger,
	}
}

func (s *ReceiptServer) ProcessReceipt(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	log := common.LoggerFromContext(ctx, s.logger)

	payload, err := json.Marshal(req.AsMap())
	if err != nil {
		log.Error("failed to encode receipt struct", "error", err)
		return nil, status.Error(codes.InvalidArgument, "receipt is not representable as JSON")
	}

	rec, err := s.receipts.Process(ctx, payload)
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return wrapperspb.String(rec.ID.String()), nil
}

func (s *ReceiptServer) GetPoints(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		common.LoggerFromContext(ctx, s.logger).Error("get points request missing id")
		return nil, common.InvalidArgumentErrorf("%s is required", "id")
	}

	pts, err := s.receipts.Points(ctx, id)
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return wrapperspb.Int64(int64(pts)), nil
}
