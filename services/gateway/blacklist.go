package gateway

import (
	// Go Internal Packages
	"strings"

	// Local Packages
	utils "tx-gateway/utils"
)

// DefaultBlacklist is used when the configuration does not name one.
var DefaultBlacklist = []string{"4000 0000 0000 0119"}

// Blacklist is an immutable set of card numbers that may not be authorized.
type Blacklist struct {
	cards []string
}

func NewBlacklist(cards []string) Blacklist {
	normalized := make([]string, 0, len(cards))
	for _, c := range cards {
		if n := utils.NormalizeCardNumber(c); n != "" {
			normalized = append(normalized, n)
		}
	}
	return Blacklist{cards: normalized}
}

// Contains reports whether card contains any blacklisted number.
func (b Blacklist) Contains(card string) bool {
	card = utils.NormalizeCardNumber(card)
	for _, c := range b.cards {
		if strings.Contains(card, c) {
			return true
		}
	}
	return false
}
