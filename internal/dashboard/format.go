package dashboard

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

// Currency renders v as pesos without fraction digits, e.g. "$ 150.000".
func Currency(v decimal.Decimal) string {
	return currencyFloat(v.InexactFloat64())
}

func currencyFloat(f float64) string {
	f = math.Round(f)
	if f < 0 {
		return "-$ " + printer.Sprint(number.Decimal(-f, number.MaxFractionDigits(0)))
	}
	return "$ " + printer.Sprint(number.Decimal(f, number.MaxFractionDigits(0)))
}

// Count renders an integer with es-AR grouping.
func Count(n int) string {
	return printer.Sprint(number.Decimal(n))
}

// Amount renders v with up to two fraction digits.
func Amount(v decimal.Decimal) string {
	return printer.Sprint(number.Decimal(v.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}

// Percent renders a one-decimal percentage.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
