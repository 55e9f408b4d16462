package points

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

type scenario struct {
	Name    string         `yaml:"name"`
	Points  int            `yaml:"points"`
	Receipt entity.Receipt `yaml:"receipt"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	raw, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)
	var out []scenario
	require.NoError(t, yaml.Unmarshal(raw, &out))
	require.NotEmpty(t, out)
	return out
}

func TestScoreScenarios(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			got, err := Score(sc.Receipt)
			require.NoError(t, err)
			assert.Equal(t, sc.Points, got)

			b, err := Evaluate(sc.Receipt)
			require.NoError(t, err)
			out, err := json.MarshalIndent(b, "", "  ")
			require.NoError(t, err)
			g.Assert(t, sc.Name, out)
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		first, err := Score(sc.Receipt)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Score(sc.Receipt)
			require.NoError(t, err)
			assert.Equal(t, first, again, sc.Name)
		}
	}
}

func TestRetailer(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Target", 6},
		{"M&M Corner Market", 14},
		{"", 0},
		{"  & - !", 0},
		{"7-Eleven", 7},
		{"Café", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Retailer(tt.in), tt.in)
	}
}

func TestTotalRules(t *testing.T) {
	tests := []struct {
		total       string
		roundDollar int
		quarter     int
	}{
		{"10.00", 50, 25},
		{"10.25", 0, 25},
		{"10.50", 0, 25},
		{"10.75", 0, 25},
		{"10.10", 0, 0},
		{"0.00", 50, 25},
		{"35.35", 0, 0},
		{"4.96", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			rd, err := RoundDollar(tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.roundDollar, rd)

			q, err := QuarterMultiple(tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.quarter, q)
		})
	}
}

func TestTotalRulesRejectMalformed(t *testing.T) {
	for _, total := range []string{"abc", "-1.00", "1.2.3", "1e2", "+1.00", "1.5", "1e-200000000", " 1.00", "1.000"} {
		_, err := RoundDollar(total)
		var mErr *MalformedInputError
		require.True(t, errors.As(err, &mErr), total)
		assert.Equal(t, "total", mErr.Field)

		_, err = QuarterMultiple(total)
		require.True(t, errors.As(err, &mErr), total)
		assert.Equal(t, "total", mErr.Field)
	}
}

func TestItemPairs(t *testing.T) {
	items := func(n int) []entity.Item { return make([]entity.Item, n) }
	assert.Equal(t, 0, ItemPairs(nil))
	assert.Equal(t, 0, ItemPairs(items(1)))
	assert.Equal(t, 5, ItemPairs(items(2)))
	assert.Equal(t, 5, ItemPairs(items(3)))
	assert.Equal(t, 10, ItemPairs(items(4)))
	assert.Equal(t, 10, ItemPairs(items(5)))
}

func TestDescriptions(t *testing.T) {
	tests := []struct {
		name  string
		items []entity.Item
		want  int
	}{
		{"none", nil, 0},
		{"trimmed length 24", []entity.Item{{ShortDescription: "   Klarbrunn 12-PK 12 FL OZ  ", Price: "12.00"}}, 3},
		{"length 8 ignored", []entity.Item{{ShortDescription: "Gatorade", Price: "2.25"}}, 0},
		// 10.00 * 0.2 is exactly 2; binary floats must not push it to 3.
		{"exact integer product", []entity.Item{{ShortDescription: "abc", Price: "10.00"}}, 2},
		{"product just above integer", []entity.Item{{ShortDescription: "abc", Price: "10.01"}}, 3},
		{"zero price", []entity.Item{{ShortDescription: "abc", Price: "0.00"}}, 0},
		{"whitespace only", []entity.Item{{ShortDescription: "      ", Price: "9.00"}}, 0},
		{"multibyte counted as characters", []entity.Item{{ShortDescription: "ñçü", Price: "5.00"}}, 1},
		{"summed across items", []entity.Item{
			{ShortDescription: "Emils Cheese Pizza", Price: "12.25"},
			{ShortDescription: "   Klarbrunn 12-PK 12 FL OZ  ", Price: "12.00"},
			{ShortDescription: "Mountain Dew 12PK", Price: "6.49"},
		}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Descriptions(tt.items)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptionsMalformedPrice(t *testing.T) {
	_, err := Descriptions([]entity.Item{
		{ShortDescription: "Gatorade", Price: "oops"}, // not scored, not parsed
		{ShortDescription: "abc", Price: "x.yz"},
	})
	var mErr *MalformedInputError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "items.1.price", mErr.Field)

	for _, price := range []string{"1e2", "+1.00", "1.5", "1e-200000000", "-0.50"} {
		_, err := Descriptions([]entity.Item{{ShortDescription: "abc", Price: price}})
		require.True(t, errors.As(err, &mErr), price)
		assert.Equal(t, "items.0.price", mErr.Field)
		assert.Equal(t, price, mErr.Value)
	}
}

func TestPurchaseDay(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2022-01-01", 6},
		{"2022-03-20", 0},
		{"2022-01-31", 6},
		{"2024-02-29", 6},
		{"2022-12-30", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := PurchaseDay(tt.date)
		require.NoError(t, err, tt.date)
		assert.Equal(t, tt.want, got, tt.date)
	}

	for _, bad := range []string{"2022-02-30", "2022-1-01", "01/01/2022", "2023-02-29"} {
		_, err := PurchaseDay(bad)
		var mErr *MalformedInputError
		require.True(t, errors.As(err, &mErr), bad)
		assert.Equal(t, "purchaseDate", mErr.Field)
	}
}

func TestPurchaseTime(t *testing.T) {
	tests := []struct {
		clock string
		want  int
	}{
		{"13:59", 0},
		{"14:00", 10},
		{"14:33", 10},
		{"15:59", 10},
		{"16:00", 0},
		{"00:00", 0},
		{"23:59", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := PurchaseTime(tt.clock)
		require.NoError(t, err, tt.clock)
		assert.Equal(t, tt.want, got, tt.clock)
	}

	for _, bad := range []string{"24:00", "9:05", "14:60", "2pm", "14:00:00"} {
		_, err := PurchaseTime(bad)
		require.Error(t, err, bad)
	}
}

func TestEvaluateFailsWholeReceipt(t *testing.T) {
	r := entity.Receipt{
		Retailer:     "Target",
		PurchaseDate: "2022-13-01",
		PurchaseTime: "14:00",
		Total:        "10.00",
	}
	b, err := Evaluate(r)
	require.Error(t, err)
	assert.Equal(t, Breakdown{}, b)

	_, err = Score(r)
	require.Error(t, err)
}

func TestRulesAreMonotonic(t *testing.T) {
	base := entity.Receipt{
		Retailer:     "Shop",
		PurchaseDate: "2022-01-02",
		PurchaseTime: "10:00",
		Items:        []entity.Item{{ShortDescription: "ab", Price: "1.10"}},
		Total:        "1.10",
	}
	baseScore, err := Score(base)
	require.NoError(t, err)

	withAfternoon := base
	withAfternoon.PurchaseTime = "15:00"
	s, err := Score(withAfternoon)
	require.NoError(t, err)
	assert.Equal(t, baseScore+10, s)

	withOddDay := base
	withOddDay.PurchaseDate = "2022-01-03"
	s, err = Score(withOddDay)
	require.NoError(t, err)
	assert.Equal(t, baseScore+6, s)

	withRoundTotal := base
	withRoundTotal.Total = "2.00"
	s, err = Score(withRoundTotal)
	require.NoError(t, err)
	assert.Equal(t, baseScore+75, s)
}
