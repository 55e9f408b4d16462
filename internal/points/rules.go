package points

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// AmountPattern is the only accepted shape of a money amount: non-negative,
// exactly two decimals, no sign or exponent.
const AmountPattern = `^\d+\.\d{2}$`

const (
	roundDollarPoints     = 50
	quarterMultiplePoints = 25
	itemPairPoints        = 5
	oddDayPoints          = 6
	afternoonPoints       = 10

	afternoonStartHour = 14
	afternoonEndHour   = 16 // exclusive
)

var (
	quarter         = decimal.New(25, -2)
	descriptionRate = decimal.New(2, -1)

	amountRE = regexp.MustCompile(AmountPattern)

	errAmountFormat = errors.New("expected a non-negative amount with two decimals")
	errClockFormat  = errors.New("expected HH:MM")
)

// Retailer awards one point per ASCII letter or digit in the retailer name.
func Retailer(name string) int {
	n := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			n++
		}
	}
	return n
}

// RoundDollar awards 50 points when the total has no cents.
func RoundDollar(total string) (int, error) {
	if total == "" {
		return 0, nil
	}
	amt, err := parseAmount("total", total)
	if err != nil {
		return 0, err
	}
	if amt.Equal(amt.Truncate(0)) {
		return roundDollarPoints, nil
	}
	return 0, nil
}

// QuarterMultiple awards 25 points when the total is a multiple of 0.25.
func QuarterMultiple(total string) (int, error) {
	if total == "" {
		return 0, nil
	}
	amt, err := parseAmount("total", total)
	if err != nil {
		return 0, err
	}
	if amt.Mod(quarter).IsZero() {
		return quarterMultiplePoints, nil
	}
	return 0, nil
}

// ItemPairs awards 5 points for every two items.
func ItemPairs(items []entity.Item) int {
	return len(items) / 2 * itemPairPoints
}

// Descriptions awards ceil(price * 0.2) for every item whose trimmed
// description length is a positive multiple of three.
func Descriptions(items []entity.Item) (int, error) {
	sum := 0
	for i, it := range items {
		n := utf8.RuneCountInString(strings.TrimSpace(it.ShortDescription))
		if n == 0 || n%3 != 0 {
			continue
		}
		if it.Price == "" {
			continue
		}
		price, err := parseAmount("items."+strconv.Itoa(i)+".price", it.Price)
		if err != nil {
			return 0, err
		}
		sum += int(price.Mul(descriptionRate).Ceil().IntPart())
	}
	return sum, nil
}

// PurchaseDay awards 6 points when the day of month is odd. The day is read
// from the calendar date itself; no time zone is involved.
func PurchaseDay(date string) (int, error) {
	if date == "" {
		return 0, nil
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0, malformed("purchaseDate", date, err)
	}
	if d.Day()%2 == 1 {
		return oddDayPoints, nil
	}
	return 0, nil
}

// PurchaseTime awards 10 points for purchases from 14:00 up to but not
// including 16:00.
func PurchaseTime(clock string) (int, error) {
	if clock == "" {
		return 0, nil
	}
	if len(clock) != len("15:04") {
		return 0, malformed("purchaseTime", clock, errClockFormat)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, malformed("purchaseTime", clock, err)
	}
	if h := t.Hour(); h >= afternoonStartHour && h < afternoonEndHour {
		return afternoonPoints, nil
	}
	return 0, nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if !amountRE.MatchString(s) {
		return decimal.Decimal{}, malformed(field, s, errAmountFormat)
	}
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, malformed(field, s, err)
	}
	return amt, nil
}
