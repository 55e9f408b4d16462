// Package points scores receipts. Every rule is a pure function of the
// receipt fields it reads; the total is their sum.
//
// Empty fields contribute nothing. Fields that are present but cannot be
// parsed fail the whole evaluation with a *MalformedInputError, so a score is
// never partial.
package points

import "github.com/joseph-ayodele/receipt-processor/internal/entity"

// Breakdown is the contribution of each rule to a receipt's score.
type Breakdown struct {
	Retailer        int `json:"retailer"`
	RoundDollar     int `json:"roundDollar"`
	QuarterMultiple int `json:"quarterMultiple"`
	ItemPairs       int `json:"itemPairs"`
	Descriptions    int `json:"descriptions"`
	PurchaseDay     int `json:"purchaseDay"`
	PurchaseTime    int `json:"purchaseTime"`
	Total           int `json:"total"`
}

// Evaluate runs every rule against r.
func Evaluate(r entity.Receipt) (Breakdown, error) {
	var (
		b   Breakdown
		err error
	)
	b.Retailer = Retailer(r.Retailer)
	if b.RoundDollar, err = RoundDollar(r.Total); err != nil {
		return Breakdown{}, err
	}
	if b.QuarterMultiple, err = QuarterMultiple(r.Total); err != nil {
		return Breakdown{}, err
	}
	b.ItemPairs = ItemPairs(r.Items)
	if b.Descriptions, err = Descriptions(r.Items); err != nil {
		return Breakdown{}, err
	}
	if b.PurchaseDay, err = PurchaseDay(r.PurchaseDate); err != nil {
		return Breakdown{}, err
	}
	if b.PurchaseTime, err = PurchaseTime(r.PurchaseTime); err != nil {
		return Breakdown{}, err
	}

	b.Total = b.Retailer + b.RoundDollar + b.QuarterMultiple + b.ItemPairs +
		b.Descriptions + b.PurchaseDay + b.PurchaseTime
	return b, nil
}

// Score returns the total points for r.
func Score(r entity.Receipt) (int, error) {
	b, err := Evaluate(r)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}
