package matching

import (
	fuzz "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/ravenhold/tradehall/tradebot/database/models"
)

// AlertMatch pairs a user's watch term with the posted item that triggered
// it.
type AlertMatch struct {
	Watch string
	Item  string
	Score int
}

// MatchAlerts scans every alert against the items just posted and groups the
// hits per watching user so each user gets a single notification. The
// poster's own alerts are skipped. An alert fires at most once per posting:
// the first item scoring at or above the alert threshold claims it.
func MatchAlerts(alerts []*models.AlertEntry, items []string, posterID string) map[string][]AlertMatch {
	normalized := make([]string, len(items))
	for i, item := range items {
		normalized[i] = Normalize(item)
	}

	hits := make(map[string][]AlertMatch)
	for _, alert := range alerts {
		if alert.UserID == posterID {
			continue
		}
		watch := Normalize(alert.Item)
		if watch == "" {
			continue
		}
		for i, item := range normalized {
			if item == "" {
				continue
			}
			if score := fuzz.WRatio(watch, item); score >= ThresholdAlert {
				hits[alert.UserID] = append(hits[alert.UserID], AlertMatch{
					Watch: alert.Item,
					Item:  items[i],
					Score: score,
				})
				break
			}
		}
	}
	return hits
}
