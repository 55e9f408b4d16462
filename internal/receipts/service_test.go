package receipts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
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

// Same receipt, different key order and whitespace.
const targetReformatted = `{"total":"35.35","retailer":"Target","purchaseTime":"13:01","purchaseDate":"2022-01-01","items":[{"price":"6.49","shortDescription":"Mountain Dew 12PK"},{"price":"12.25","shortDescription":"Emils Cheese Pizza"},{"price":"1.26","shortDescription":"Knorr Creamy Chicken"},{"price":"3.35","shortDescription":"Doritos Nacho Cheese"},{"price":"12.00","shortDescription":"   Klarbrunn 12-PK 12 FL OZ  "}]}`

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

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	logger := common.DiscardLogger()
	svc, err := NewService(repository.NewMemoryRepository(logger), logger, opts...)
	require.NoError(t, err)
	return svc
}

func TestProcessScoresAndStores(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name    string
		payload string
		points  int
	}{
		{"target", targetReceipt, 28},
		{"corner market", cornerMarketReceipt, 109},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := svc.Process(ctx, []byte(tt.payload))
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, rec.ID)
			assert.Equal(t, tt.points, rec.Points)

			pts, err := svc.Points(ctx, rec.ID.String())
			require.NoError(t, err)
			assert.Equal(t, tt.points, pts)
		})
	}
}

func TestProcessRoundTrip(t *testing.T) {
	ctx := context.Background()
	id := uuid.MustParse("7fb1377b-b223-49d9-a31a-5a02701dd310")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t,
		WithIDGenerator(func() uuid.UUID { return id }),
		WithClock(func() time.Time { return at }),
	)

	rec, err := svc.Process(ctx, []byte(targetReceipt))
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	got, err := svc.Get(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "Target", got.Receipt.Retailer)
	assert.Equal(t, "35.35", got.Receipt.Total)
	require.Len(t, got.Receipt.Items, 5)
	assert.Equal(t, "   Klarbrunn 12-PK 12 FL OZ  ", got.Receipt.Items[4].ShortDescription)
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
}

func TestProcessRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.Process(ctx, []byte(targetReceipt))
	require.NoError(t, err)

	for _, payload := range []string{targetReceipt, targetReformatted} {
		_, err = svc.Process(ctx, []byte(payload))
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDuplicate))
		assert.Equal(t, common.CodeDuplicateReceipt, common.ErrorCode(err))

		var dup *common.DuplicateError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, first.ID.String(), dup.ExistingID)
	}

	recs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"not json", `{"retailer":`, "body"},
		{"missing retailer", `{"purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.00"}`, "retailer"},
		{"blank retailer", `{"retailer":"   ","purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.00"}`, "retailer"},
		{"total one decimal", `{"retailer":"A","purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.0"}`, "total"},
		{"numeric price", `{"retailer":"A","purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[{"shortDescription":"x","price":1.00}],"total":"1.00"}`, "items.0.price"},
		{"no items", `{"retailer":"A","purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[],"total":"1.00"}`, "items"},
		{"impossible date", `{"retailer":"A","purchaseDate":"2022-02-30","purchaseTime":"13:01","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.00"}`, "purchaseDate"},
		{"bad time", `{"retailer":"A","purchaseDate":"2022-01-01","purchaseTime":"25:00","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.00"}`, "purchaseTime"},
		{"unknown field", `{"retailer":"A","purchaseDate":"2022-01-01","purchaseTime":"13:01","items":[{"shortDescription":"x","price":"1.00"}],"total":"1.00","cashier":"bob"}`, ""},
	}

	svc := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))
			assert.Equal(t, common.CodeValidationFailed, common.ErrorCode(err))

			var verrs common.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.NotEmpty(t, verrs)
			if tt.field != "" {
				fields := make([]string, 0, len(verrs))
				for _, v := range verrs {
					fields = append(fields, v.Field)
				}
				assert.Contains(t, fields, tt.field)
			}
		})
	}

	recs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPointsUnknownReceipt(t *testing.T) {
	svc := newTestService(t)
	for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
		_, err := svc.Points(context.Background(), id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNotFound), id)
		assert.Equal(t, common.CodeReceiptNotFound, common.ErrorCode(err), id)
	}
}

func TestListInAcceptanceOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc := newTestService(t, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	a, err := svc.Process(ctx, []byte(cornerMarketReceipt))
	require.NoError(t, err)
	b, err := svc.Process(ctx, []byte(targetReceipt))
	require.NoError(t, err)

	recs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, a.ID, recs[0].ID)
	assert.Equal(t, b.ID, recs[1].ID)
}

func TestFingerprintNormalizesUnicode(t *testing.T) {
	r := entity.Receipt{
		Retailer:     "Café",
		PurchaseDate: "2022-01-01",
		PurchaseTime: "13:01",
		Items:        []entity.Item{{ShortDescription: "Crème", Price: "1.00"}},
		Total:        "1.00",
	}
	decomposed := r
	decomposed.Retailer = "Cafe\u0301"
	decomposed.Items = []entity.Item{{ShortDescription: "Cre\u0300me", Price: "1.00"}}

	a, err := Fingerprint(r)
	require.NoError(t, err)
	b, err := Fingerprint(decomposed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := r
	changed.Total = "1.01"
	c, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestFingerprintKeepsHTMLCharacters(t *testing.T) {
	r := entity.Receipt{Retailer: "M&M <Corner>", Items: nil}
	s := r
	s.Items = []entity.Item{}
	a, err := Fingerprint(r)
	require.NoError(t, err)
	b, err := Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPing(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, svc.Ping(context.Background()))
}
