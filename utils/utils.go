// Package utils provides utility functions for the application.
package utils

import "strconv"

// FormatYen renders an integer yen amount with thousands separators,
// e.g. 24600 -> "24,600". Negative amounts keep the sign.
func FormatYen(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	s := strconv.Itoa(amount)
	if len(s) <= 3 {
		return sign + s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return sign + string(out)
}
