/*
display.go - Name, currency, and date formatting for presentation

Formatting semantics the boundary relies on: display names join member names
with " / ", currency is integer-valued (Chilean-peso style, dot thousands,
no fractional units), and readable dates use Spanish short month names.
*/
package rotation

import (
	"fmt"
	"strings"
)

// DisplayName joins member names with the pair connector.
func DisplayName(e *Entity) string {
	names := make([]string, len(e.Members))
	for i := range e.Members {
		names[i] = e.Members[i].Name
	}
	return strings.Join(names, " / ")
}

// FormatAmount renders an integer amount as currency: 1500000 -> "$1.500.000".
func FormatAmount(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}

	if negative {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

// FormatDateReadable renders "2024-01-31" as "31 ene".
func FormatDateReadable(d PlainDate) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s", d.Day(), spanishMonths[d.Month()-1])
}

// FormatDateFull renders "2024-01-31" as "31 ene 2024".
func FormatDateFull(d PlainDate) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", d.Day(), spanishMonths[d.Month()-1], d.Year())
}
