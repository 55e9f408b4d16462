package receipts

import "github.com/joseph-ayodele/receipt-processor/internal/points"

const (
	amountPattern = points.AmountPattern
	datePattern   = `^\d{4}-\d{2}-\d{2}$`
	clockPattern  = `^([01]\d|2[0-3]):[0-5]\d$`
)

// BuildReceiptJSONSchema returns the JSON Schema (draft 2020-12) a submitted
// receipt must satisfy. Calendar validity of the date is checked separately.
func BuildReceiptJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"shortDescription", "price"},
		"properties": map[string]any{
			"shortDescription": map[string]any{"type": "string"},
			"price":            amountProp(),
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"retailer", "purchaseDate", "purchaseTime", "items", "total"},
		"properties": map[string]any{
			"retailer":     map[string]any{"type": "string", "minLength": 1, "pattern": `\S`},
			"purchaseDate": map[string]any{"type": "string", "pattern": datePattern},
			"purchaseTime": map[string]any{"type": "string", "pattern": clockPattern},
			"items":        map[string]any{"type": "array", "minItems": 1, "items": item},
			"total":        amountProp(),
		},
	}
}

func amountProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": amountPattern, // non-negative, exactly two decimals
	}
}
