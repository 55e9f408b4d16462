package receipts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// Fingerprint hashes the canonical form of r: fixed field order, NFC
// normalized strings and no HTML escaping. Equal receipts share a fingerprint
// however their JSON was formatted.
func Fingerprint(r entity.Receipt) (string, error) {
	c := entity.Receipt{
		Retailer:     norm.NFC.String(r.Retailer),
		PurchaseDate: norm.NFC.String(r.PurchaseDate),
		PurchaseTime: norm.NFC.String(r.PurchaseTime),
		Items:        make([]entity.Item, len(r.Items)),
		Total:        norm.NFC.String(r.Total),
	}
	for i, it := range r.Items {
		c.Items[i] = entity.Item{
			ShortDescription: norm.NFC.String(it.ShortDescription),
			Price:            norm.NFC.String(it.Price),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("canonical receipt: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
