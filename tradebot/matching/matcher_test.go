package matching

import (
	"testing"

	"github.com/ravenhold/tradehall/tradebot/database/models"
)

func alert(userID, item string) *models.AlertEntry {
	return &models.AlertEntry{UserID: userID, Item: item}
}

func TestMatchAlerts(t *testing.T) {
	alerts := []*models.AlertEntry{
		alert("alice", "blue shell"),
		alert("alice", "golden mushroom"),
		alert("bob", "Blue Shell"),
		alert("carol", "banana peel"),
	}

	hits := MatchAlerts(alerts, []string{"Blue  Shell", "Red Shell"}, "carol")

	if len(hits) != 2 {
		t.Fatalf("got hits for %d users, want 2: %v", len(hits), hits)
	}

	aliceHits, ok := hits["alice"]
	if !ok || len(aliceHits) != 1 {
		t.Fatalf("alice hits = %v, want exactly one", aliceHits)
	}
	if aliceHits[0].Watch != "blue shell" || aliceHits[0].Item != "Blue  Shell" {
		t.Errorf("alice hit = %+v, want watch 'blue shell' on item 'Blue  Shell'", aliceHits[0])
	}
	if aliceHits[0].Score < ThresholdAlert {
		t.Errorf("alice hit score = %d, want >= %d", aliceHits[0].Score, ThresholdAlert)
	}

	if bobHits := hits["bob"]; len(bobHits) != 1 {
		t.Errorf("bob hits = %v, want exactly one", bobHits)
	}
}

func TestMatchAlerts_ExcludesPoster(t *testing.T) {
	alerts := []*models.AlertEntry{alert("alice", "blue shell")}

	hits := MatchAlerts(alerts, []string{"blue shell"}, "alice")
	if len(hits) != 0 {
		t.Errorf("poster's own alert fired: %v", hits)
	}
}

func TestMatchAlerts_OneHitPerAlert(t *testing.T) {
	alerts := []*models.AlertEntry{alert("alice", "blue shell")}

	hits := MatchAlerts(alerts, []string{"blue shell", "blue shell deluxe", "blue shells"}, "poster")
	if len(hits["alice"]) != 1 {
		t.Errorf("alert fired %d times for one posting, want 1", len(hits["alice"]))
	}
}

func TestMatchAlerts_BelowThreshold(t *testing.T) {
	alerts := []*models.AlertEntry{alert("alice", "golden mushroom")}

	hits := MatchAlerts(alerts, []string{"banana peel"}, "poster")
	if len(hits) != 0 {
		t.Errorf("unrelated item triggered alert: %v", hits)
	}
}

func TestMatchAlerts_EmptyInputs(t *testing.T) {
	if hits := MatchAlerts(nil, []string{"blue shell"}, "p"); len(hits) != 0 {
		t.Errorf("no alerts should mean no hits, got %v", hits)
	}
	alerts := []*models.AlertEntry{alert("alice", "blue shell")}
	if hits := MatchAlerts(alerts, nil, "p"); len(hits) != 0 {
		t.Errorf("no items should mean no hits, got %v", hits)
	}
	alerts = []*models.AlertEntry{alert("alice", "   ")}
	if hits := MatchAlerts(alerts, []string{"blue shell"}, "p"); len(hits) != 0 {
		t.Errorf("blank watch term should never fire, got %v", hits)
	}
}
