package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/matching"
)

type fakeAlertSource struct {
	alerts []*models.AlertEntry
	err    error
}

func (f *fakeAlertSource) AllAlerts(context.Context) ([]*models.AlertEntry, error) {
	return f.alerts, f.err
}

type fakeDigestSender struct {
	digests map[string][]matching.AlertMatch
	fail    map[string]bool
}

func newFakeDigestSender() *fakeDigestSender {
	return &fakeDigestSender{
		digests: make(map[string][]matching.AlertMatch),
		fail:    make(map[string]bool),
	}
}

func (f *fakeDigestSender) SendAlertDigest(_ context.Context, userID, _ string, matches []matching.AlertMatch) error {
	if f.fail[userID] {
		return errors.New("dm closed")
	}
	f.digests[userID] = matches
	return nil
}

func TestNotifyMatches_GroupsPerUser(t *testing.T) {
	source := &fakeAlertSource{alerts: []*models.AlertEntry{
		{UserID: "alice", Item: "blue shell"},
		{UserID: "alice", Item: "red shell"},
		{UserID: "bob", Item: "blue shell"},
	}}
	sender := newFakeDigestSender()
	svc := NewAlertService(source, sender)

	svc.NotifyMatches(context.Background(), "poster", []string{"Blue Shell", "Red Shell"})

	if len(sender.digests["alice"]) != 2 {
		t.Errorf("alice digest = %v, want both alerts in one digest", sender.digests["alice"])
	}
	if len(sender.digests["bob"]) != 1 {
		t.Errorf("bob digest = %v, want one hit", sender.digests["bob"])
	}
}

func TestNotifyMatches_SkipsPoster(t *testing.T) {
	source := &fakeAlertSource{alerts: []*models.AlertEntry{
		{UserID: "alice", Item: "blue shell"},
	}}
	sender := newFakeDigestSender()
	svc := NewAlertService(source, sender)

	svc.NotifyMatches(context.Background(), "alice", []string{"blue shell"})

	if len(sender.digests) != 0 {
		t.Errorf("poster received their own alert: %v", sender.digests)
	}
}

func TestNotifyMatches_DeliveryFailureIsolated(t *testing.T) {
	source := &fakeAlertSource{alerts: []*models.AlertEntry{
		{UserID: "alice", Item: "blue shell"},
		{UserID: "bob", Item: "blue shell"},
	}}
	sender := newFakeDigestSender()
	sender.fail["alice"] = true
	svc := NewAlertService(source, sender)

	svc.NotifyMatches(context.Background(), "poster", []string{"blue shell"})

	if len(sender.digests["bob"]) != 1 {
		t.Errorf("bob digest lost to alice's failure: %v", sender.digests)
	}
}

func TestNotifyStockChange_Restock(t *testing.T) {
	source := &fakeAlertSource{alerts: []*models.AlertEntry{
		{UserID: "alice", Item: "blue shell"},
	}}
	sender := newFakeDigestSender()
	svc := NewAlertService(source, sender)

	svc.NotifyStockChange(context.Background(), "poster", "blue shell", 3)

	if len(sender.digests["alice"]) != 1 {
		t.Errorf("alice digest = %v, want one hit after restock", sender.digests["alice"])
	}
}

func TestNotifyStockChange_OutOfStock(t *testing.T) {
	source := &fakeAlertSource{err: errors.New("must not be called")}
	sender := newFakeDigestSender()
	svc := NewAlertService(source, sender)

	svc.NotifyStockChange(context.Background(), "poster", "blue shell", 0)

	if len(sender.digests) != 0 {
		t.Errorf("out-of-stock change notified watchers: %v", sender.digests)
	}
}

func TestNotifyMatches_NoItems(t *testing.T) {
	source := &fakeAlertSource{err: errors.New("must not be called")}
	svc := NewAlertService(source, newFakeDigestSender())

	// No items means no repository call and no digests.
	svc.NotifyMatches(context.Background(), "poster", nil)
}
