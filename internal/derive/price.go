package derive

import "github.com/shopspring/decimal"

var (
	basePrice       = decimal.NewFromInt(10)
	perDecadePrice  = decimal.NewFromInt(2)
	perEditionPrice = decimal.NewFromInt(1)
	maxPrice        = decimal.NewFromInt(50)
)

// DecadesOld returns the number of whole decades between firstPublishYear and
// currentYear. An absent or future year counts as zero decades.
func DecadesOld(firstPublishYear *int, currentYear int) int {
	if firstPublishYear == nil || *firstPublishYear > currentYear {
		return 0
	}
	return (currentYear - *firstPublishYear) / 10
}

// Price computes min(50, 10 + 2*decades + editions) rounded to two places.
// currentYear is injected so results do not depend on the wall clock.
func Price(firstPublishYear *int, editionCount, currentYear int) decimal.Decimal {
	if editionCount < 0 {
		editionCount = 0
	}

	decades := decimal.NewFromInt(int64(DecadesOld(firstPublishYear, currentYear)))
	editions := decimal.NewFromInt(int64(editionCount))

	price := basePrice.
		Add(perDecadePrice.Mul(decades)).
		Add(perEditionPrice.Mul(editions))

	return decimal.Min(price, maxPrice).Round(2)
}

// FormatPrice renders a price with exactly two decimal places.
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2)
}
