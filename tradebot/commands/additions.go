package commands

import (
	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/matching"
)

// planAddition resolves a typed item name against the caller's own existing
// entries. A near-exact match snaps to the stored spelling and marks the
// addition as a top-up of that entry, which is exempt from the tier cap.
func planAddition(item string, owned []string) (corrected string, merges bool) {
	if match, _, ok := matching.Resolve(item, owned, matching.ThresholdStrict); ok {
		return match, true
	}
	return item, false
}

func stockNames(entries []*models.StockEntry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Item
	}
	return names
}
