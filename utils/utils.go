package utils

import (
	// Go Internal Packages
	"strings"
)

// NormalizeCardNumber drops the separators people type between digit groups.
func NormalizeCardNumber(card string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, card)
}

// MaskCardNumber keeps only the last four characters of a card number.
func MaskCardNumber(card string) string {
	card = NormalizeCardNumber(card)
	if len(card) <= 4 {
		return strings.Repeat("*", len(card))
	}
	return strings.Repeat("*", len(card)-4) + card[len(card)-4:]
}
