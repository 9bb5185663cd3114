package insurance

import "github.com/shopspring/decimal"

// housingFundStep is the fractional threshold below which a housing fund
// amount is truncated instead of rounded up.
var housingFundStep = decimal.New(1, -1) // 0.10

// RoundStandard rounds a monetary amount to 2 decimal places using
// round-half-away-from-zero, matching round(amount * 100) / 100.
func RoundStandard(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// RoundHousingFund applies the housing fund rounding rule: the amount is
// truncated to a whole unit when its fractional remainder is below 0.10,
// otherwise raised to the next whole unit. Housing fund contributions are
// always whole currency units. Note 123.099999 truncates to 123 while 123.10
// rounds up to 124; the threshold compares the exact remainder, not a
// pre-rounded one.
func RoundHousingFund(amount decimal.Decimal) decimal.Decimal {
	whole := amount.Truncate(0)
	if amount.Sub(whole).LessThan(housingFundStep) {
		return whole
	}
	return whole.Add(decimal.NewFromInt(1))
}

// RoundForType selects the rounding policy for an insurance type.
func RoundForType(key TypeKey, amount decimal.Decimal) decimal.Decimal {
	if key == TypeHousingFund {
		return RoundHousingFund(amount)
	}
	return RoundStandard(amount)
}
