package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"potracker/internal/domain"
)

func TestHighestValueItem_Empty(t *testing.T) {
	assert.Equal(t, NoItem, HighestValueItem(nil))
	assert.Equal(t, "-", HighestValueItem([]domain.LineItem{}))
}

func TestHighestValueItem_TieKeepsFirst(t *testing.T) {
	items := []domain.LineItem{
		{Name: "A", Quantity: "1", UnitPrice: "100"},
		{Name: "B", Quantity: "2", UnitPrice: "50"},
	}

	assert.Equal(t, "A", HighestValueItem(items))
}

func TestHighestValueItem_NoisyFields(t *testing.T) {
	items := []domain.LineItem{
		{Name: "Lens", Quantity: "3 pcs", UnitPrice: "$12.00"},
		{Name: "Mount", Quantity: "1", UnitPrice: "$1,050.00"},
		{Name: "Filter", Quantity: "10", UnitPrice: "4.99"},
	}

	assert.Equal(t, "Mount", HighestValueItem(items))
}

func TestHighestValueItem_MalformedItemsDoNotPanic(t *testing.T) {
	items := []domain.LineItem{
		{Name: "Broken", Quantity: "n/a", UnitPrice: "call"},
		{Name: "Cheap", Quantity: "1", UnitPrice: "0.01"},
	}

	assert.Equal(t, "Cheap", HighestValueItem(items))
}

func TestHighestValueItem_AllZeroReturnsFirst(t *testing.T) {
	items := []domain.LineItem{
		{Name: "First", Quantity: "", UnitPrice: ""},
		{Name: "Second", Quantity: "abc", UnitPrice: "def"},
	}

	assert.Equal(t, "First", HighestValueItem(items))
}

func TestTotal(t *testing.T) {
	items := []domain.LineItem{
		{Name: "Widget", Quantity: "10", UnitPrice: "100"},
		{Name: "Gadget", Quantity: "2", UnitPrice: "$2.50"},
	}

	assert.InDelta(t, 1005.0, Total(items), 1e-9)
}
