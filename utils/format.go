package utils

import "fmt"

// FormatPrice renders a menu price in GBP, e.g. 12.5 -> "£12.50".
func FormatPrice(amount float64) string {
	return fmt.Sprintf("£%.2f", amount)
}
