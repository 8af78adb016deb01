package service

import "github.com/shopspring/decimal"

// FormatAmount renders minor currency units as a two-decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

func lineItemsTotal(prices []int64) string {
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.New(p, -2))
	}
	return sum.StringFixed(2)
}
