package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
	"github.com/joseph-ayodele/receipt-processor/internal/export"
	"github.com/joseph-ayodele/receipt-processor/internal/receipts"
	"github.com/joseph-ayodele/receipt-processor/internal/repository"
)

const targetReceipt = `{
  "retailer": "Target",
  "purchaseDate": "2022-01-01",
  "purchaseTime": "13:01",
  "items": [
    {"shortDescription": "Mountain Dew 12PK", "price": "6.49"},
    {"shortDescription": "Emils Cheese Pizza", "price": "12.25"},
    {"shortDescription": "Knorr Creamy Chicken", "price": "1.26"},
    {"shortDescription": "Doritos Nacho Cheese", "price": "3.35"},
    {"shortDescription": "   Klarbrunn 12-PK 12 FL OZ  ", "price": "12.00"}
  ],
  "total": "35.35"
}`

const cornerMarketReceipt = `{
  "retailer": "M&M Corner Market",
  "purchaseDate": "2022-03-20",
  "purchaseTime": "14:33",
  "items": [
    {"shortDescription": "Gatorade", "price": "2.25"},
    {"shortDescription": "Gatorade", "price": "2.25"},
    {"shortDescription": "Gatorade", "price": "2.25"},
    {"shortDescription": "Gatorade", "price": "2.25"}
  ],
  "total": "9.00"
}`

func newReceiptService(t *testing.T) *receipts.Service {
	t.Helper()
	logger := common.DiscardLogger()
	svc, err := receipts.NewService(repository.NewMemoryRepository(logger), logger)
	require.NoError(t, err)
	return svc
}

func newExporter(svc *receipts.Service) *export.Service {
	return export.NewService(svc, common.DiscardLogger())
}

// unhealthyService fails every call; only Ping matters to the tests using it.
type unhealthyService struct{}

var errUnavailable = errors.New("store unavailable")

func (unhealthyService) Process(context.Context, []byte) (*entity.ScoredReceipt, error) {
	return nil, errUnavailable
}

func (unhealthyService) Points(context.Context, string) (int, error) {
	return 0, errUnavailable
}

func (unhealthyService) Get(context.Context, string) (*entity.ScoredReceipt, error) {
	return nil, errUnavailable
}

func (unhealthyService) Ping(context.Context) error {
	return errUnavailable
}
