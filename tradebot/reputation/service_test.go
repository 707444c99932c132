package reputation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
)

type fakeUsers struct {
	profiles map[string]*models.UserProfile
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeUsers) GetOrCreate(_ context.Context, discordID string) (*models.UserProfile, error) {
	if u, ok := f.profiles[discordID]; ok {
		return u, nil
	}
	u := &models.UserProfile{DiscordID: discordID}
	f.profiles[discordID] = u
	return u, nil
}

func (f *fakeUsers) GetByDiscordID(_ context.Context, discordID string) (*models.UserProfile, error) {
	if u, ok := f.profiles[discordID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) SetContact(context.Context, string, string) error  { return nil }
func (f *fakeUsers) SetTimezone(context.Context, string, string) error { return nil }
func (f *fakeUsers) SetBio(context.Context, string, string) error      { return nil }
func (f *fakeUsers) SetPremium(context.Context, string, bool) error    { return nil }

func (f *fakeUsers) AdjustReputation(ctx context.Context, discordID string, deltaPositive, deltaNegative int) (*models.UserProfile, error) {
	u, _ := f.GetOrCreate(ctx, discordID)
	u.RepPositive = max(u.RepPositive+deltaPositive, 0)
	u.RepNegative = max(u.RepNegative+deltaNegative, 0)
	return u, nil
}

func (f *fakeUsers) SetReputation(ctx context.Context, discordID string, positive, negative int) (*models.UserProfile, error) {
	u, _ := f.GetOrCreate(ctx, discordID)
	u.RepPositive = positive
	u.RepNegative = negative
	return u, nil
}

func (f *fakeUsers) GetTopByReputation(context.Context, int) ([]*models.UserProfile, error) {
	return nil, nil
}

type pair struct{ rater, target string }

type fakeFeedback struct {
	users       *fakeUsers
	tradeVotes  map[int64]map[string]bool
	lastRatings map[pair]time.Time
	now         time.Time
}

func newFakeFeedback(users *fakeUsers) *fakeFeedback {
	return &fakeFeedback{
		users:       users,
		tradeVotes:  make(map[int64]map[string]bool),
		lastRatings: make(map[pair]time.Time),
		now:         time.Now(),
	}
}

func (f *fakeFeedback) bump(discordID string, score int) {
	u, _ := f.users.GetOrCreate(context.Background(), discordID)
	if score > 0 {
		u.RepPositive++
	} else {
		u.RepNegative++
	}
}

func (f *fakeFeedback) RecordTradeFeedback(_ context.Context, fb *models.TradeFeedback) (bool, error) {
	voters := f.tradeVotes[fb.TradeID]
	if voters == nil {
		voters = make(map[string]bool)
		f.tradeVotes[fb.TradeID] = voters
	}
	if voters[fb.RaterID] {
		return false, nil
	}
	voters[fb.RaterID] = true
	f.bump(fb.PartnerID, fb.Score)
	return true, nil
}

func (f *fakeFeedback) HasTradeFeedback(_ context.Context, tradeID int64, raterID string) (bool, error) {
	return f.tradeVotes[tradeID][raterID], nil
}

func (f *fakeFeedback) RecordQuickRating(_ context.Context, raterID, targetID string, score int, cooldown time.Duration, now time.Time) (bool, time.Duration, error) {
	p := pair{raterID, targetID}
	if last, ok := f.lastRatings[p]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return false, cooldown - elapsed, nil
		}
	}
	f.lastRatings[p] = now
	f.bump(targetID, score)
	return true, 0, nil
}

func (f *fakeFeedback) UpsertReview(context.Context, *models.TradeReview) (bool, error) {
	return true, nil
}

func (f *fakeFeedback) RecentReviews(context.Context, string, int) ([]*models.TradeReview, error) {
	return nil, nil
}

func (f *fakeFeedback) AddResponseScore(_ context.Context, discordID string, score int) error {
	u, _ := f.users.GetOrCreate(context.Background(), discordID)
	u.ResponseTotal += score
	u.ResponseCount++
	return nil
}

type fakeRoles struct {
	granted []string
}

func (f *fakeRoles) GrantLevelRole(_ context.Context, discordID string) error {
	f.granted = append(f.granted, discordID)
	return nil
}

func newTestService() (*Service, *fakeUsers, *fakeFeedback, *fakeRoles) {
	users := newFakeUsers()
	feedback := newFakeFeedback(users)
	roles := &fakeRoles{}
	svc := NewService(users, feedback, roles, Config{
		QuickRatingCooldown: 24 * time.Hour,
		RoleLevelThreshold:  5,
	})
	return svc, users, feedback, roles
}

func TestRecordTradeFeedback_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.RecordTradeFeedback(ctx, 1, "alice", "alice", "seller", 1); !errors.Is(err, ErrSelfRating) {
		t.Errorf("self rating error = %v, want ErrSelfRating", err)
	}
	if _, err := svc.RecordTradeFeedback(ctx, 1, "alice", "bob", "seller", 5); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("invalid score error = %v, want ErrInvalidScore", err)
	}
	if _, err := svc.RecordTradeFeedback(ctx, 1, "alice", "bob", "seller", 0); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("zero score error = %v, want ErrInvalidScore", err)
	}
}

func TestRecordTradeFeedback_OncePerRater(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	applied, err := svc.RecordTradeFeedback(ctx, 42, "alice", "bob", "buyer", 1)
	if err != nil || !applied {
		t.Fatalf("first vote: applied=%v err=%v", applied, err)
	}
	applied, err = svc.RecordTradeFeedback(ctx, 42, "alice", "bob", "buyer", -1)
	if err != nil || applied {
		t.Fatalf("second vote: applied=%v err=%v, want not applied", applied, err)
	}

	bob := users.profiles["bob"]
	if bob.RepPositive != 1 || bob.RepNegative != 0 {
		t.Errorf("bob counters = +%d/-%d, want +1/-0", bob.RepPositive, bob.RepNegative)
	}
}

func TestRecordQuickFeedback_Cooldown(t *testing.T) {
	svc, _, feedback, _ := newTestService()
	ctx := context.Background()

	applied, _, err := svc.RecordQuickFeedback(ctx, "alice", "bob", 1)
	if err != nil || !applied {
		t.Fatalf("first rating: applied=%v err=%v", applied, err)
	}

	applied, retryAfter, err := svc.RecordQuickFeedback(ctx, "alice", "bob", 1)
	if err != nil {
		t.Fatalf("second rating err = %v", err)
	}
	if applied {
		t.Fatal("second rating inside cooldown was applied")
	}
	if retryAfter <= 0 || retryAfter > 24*time.Hour {
		t.Errorf("retryAfter = %v, want within (0, 24h]", retryAfter)
	}

	// The reverse direction is an independent pair.
	applied, _, err = svc.RecordQuickFeedback(ctx, "bob", "alice", 1)
	if err != nil || !applied {
		t.Errorf("reverse-direction rating: applied=%v err=%v, want applied", applied, err)
	}

	// Expire the cooldown and retry.
	feedback.lastRatings[pair{"alice", "bob"}] = time.Now().Add(-25 * time.Hour)
	applied, _, err = svc.RecordQuickFeedback(ctx, "alice", "bob", -1)
	if err != nil || !applied {
		t.Errorf("post-cooldown rating: applied=%v err=%v, want applied", applied, err)
	}
}

func TestRecordQuickFeedback_SelfRating(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, _, err := svc.RecordQuickFeedback(context.Background(), "alice", "alice", 1); !errors.Is(err, ErrSelfRating) {
		t.Errorf("err = %v, want ErrSelfRating", err)
	}
}

func TestRoleGrantAtThreshold(t *testing.T) {
	svc, users, _, roles := newTestService()
	ctx := context.Background()

	// Level 5 needs 150 XP, i.e. 15 positives. Seed 14 and push over the
	// line with the 15th.
	users.profiles["bob"] = &models.UserProfile{DiscordID: "bob", RepPositive: 14}

	if _, _, err := svc.RecordQuickFeedback(ctx, "alice", "bob", 1); err != nil {
		t.Fatal(err)
	}
	if len(roles.granted) != 1 || roles.granted[0] != "bob" {
		t.Errorf("granted = %v, want [bob]", roles.granted)
	}
}

func TestRoleGrantBelowThreshold(t *testing.T) {
	svc, _, _, roles := newTestService()
	if _, _, err := svc.RecordQuickFeedback(context.Background(), "alice", "bob", 1); err != nil {
		t.Fatal(err)
	}
	if len(roles.granted) != 0 {
		t.Errorf("granted = %v, want none below threshold", roles.granted)
	}
}

func TestSetLevel(t *testing.T) {
	svc, users, _, roles := newTestService()
	ctx := context.Background()

	// Carried negatives must not drag the result below the target level.
	users.profiles["bob"] = &models.UserProfile{DiscordID: "bob", RepNegative: 7}

	sum, err := svc.SetLevel(ctx, "bob", 6)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Level != 6 {
		t.Errorf("Level = %d, want 6", sum.Level)
	}
	if got := LevelFor(XP(users.profiles["bob"].RepPositive, 7)); got != 6 {
		t.Errorf("recomputed level = %d, want 6", got)
	}
	if len(roles.granted) != 1 {
		t.Errorf("granted = %v, want one grant at level 6", roles.granted)
	}

	if _, err := svc.SetLevel(ctx, "bob", MaxLevel+1); err == nil {
		t.Error("SetLevel above MaxLevel succeeded, want error")
	}
	if _, err := svc.SetLevel(ctx, "bob", -1); err == nil {
		t.Error("SetLevel below zero succeeded, want error")
	}
}

func TestAdjustRep(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	users.profiles["bob"] = &models.UserProfile{DiscordID: "bob", RepPositive: 3, RepNegative: 2}

	sum, err := svc.AdjustRep(ctx, "bob", 2, -5)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Positive != 5 {
		t.Errorf("Positive = %d, want 5", sum.Positive)
	}
	if sum.Negative != 0 {
		t.Errorf("Negative = %d, want 0 (floored)", sum.Negative)
	}
}

func TestSummarize(t *testing.T) {
	svc, users, _, _ := newTestService()
	users.profiles["bob"] = &models.UserProfile{
		DiscordID:     "bob",
		RepPositive:   5,
		RepNegative:   10,
		ResponseTotal: 27,
		ResponseCount: 3,
	}

	sum, err := svc.Summarize(context.Background(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if sum.XP != 30 {
		t.Errorf("XP = %d, want 30", sum.XP)
	}
	if sum.Level != 2 {
		t.Errorf("Level = %d, want 2", sum.Level)
	}
	if sum.ResponseScore != 9 {
		t.Errorf("ResponseScore = %v, want 9", sum.ResponseScore)
	}
}
