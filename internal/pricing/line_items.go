package pricing

import "potracker/internal/domain"

// NoItem is returned by HighestValueItem when there are no line items.
const NoItem = "-"

// LineValue is quantity times unit price after normalization.
func LineValue(item domain.LineItem) float64 {
	return Normalize(item.Quantity) * Normalize(item.UnitPrice)
}

// HighestValueItem returns the name of the line item with the strictly
// greatest value. Ties go to the earliest item.
func HighestValueItem(items []domain.LineItem) string {
	if len(items) == 0 {
		return NoItem
	}

	best := 0
	bestValue := LineValue(items[0])
	for i := 1; i < len(items); i++ {
		if v := LineValue(items[i]); v > bestValue {
			best, bestValue = i, v
		}
	}
	return items[best].Name
}

// Total sums the normalized value of every line item.
func Total(items []domain.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += LineValue(item)
	}
	return sum
}
