package shared

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMoney renders minor units with the currency symbol, e.g. "€ 12.50".
// Unknown codes fall back to "XYZ 12.50".
func FormatMoney(cents int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %d.%02d", code, cents/100, abs(cents%100))
	}
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(unit.Amount(float64(cents) / 100)))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
