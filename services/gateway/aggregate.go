package gateway

import (
	// Local Packages
	models "tx-gateway/models"
)

// AmountOf sums the amounts of every ledger entry of the given type.
func AmountOf(tx *models.Transaction, entryType models.EntryType) int64 {
	var total int64
	for _, entry := range tx.Ledger {
		if entry.Type == entryType {
			total += entry.Amount
		}
	}
	return total
}
