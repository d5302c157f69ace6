package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	eur := FormatMoney(1250, "EUR")
	assert.Contains(t, eur, "€")
	assert.Contains(t, eur, "12.50")

	usd := FormatMoney(399, "USD")
	assert.Contains(t, usd, "$")
	assert.Contains(t, usd, "3.99")

	assert.Equal(t, "ZZZ 7.05", FormatMoney(705, "ZZZ"))
}
