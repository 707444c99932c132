package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/database/repositories"
)

var (
	// ErrSelfRating is returned when a user tries to rate themselves.
	ErrSelfRating = errors.New("cannot rate yourself")
	// ErrInvalidScore is returned for any feedback score other than +1/-1.
	ErrInvalidScore = errors.New("feedback score must be +1 or -1")
)

// RoleGranter grants the trusted-trader role on the host platform. Grants
// are best-effort and must be idempotent.
type RoleGranter interface {
	GrantLevelRole(ctx context.Context, discordID string) error
}

// Config carries the tunables for the reputation service.
type Config struct {
	QuickRatingCooldown time.Duration
	RoleLevelThreshold  int
}

// Summary is a user's derived reputation standing.
type Summary struct {
	Positive      int
	Negative      int
	XP            int
	Level         int
	ResponseScore float64
	ResponseCount int
}

type Service struct {
	users    repositories.UserRepository
	feedback repositories.FeedbackRepository
	roles    RoleGranter
	cfg      Config
}

func NewService(users repositories.UserRepository, feedback repositories.FeedbackRepository, roles RoleGranter, cfg Config) *Service {
	return &Service{
		users:    users,
		feedback: feedback,
		roles:    roles,
		cfg:      cfg,
	}
}

// Summarize computes the derived standing for a user, creating the profile
// on first contact.
func (s *Service) Summarize(ctx context.Context, discordID string) (*Summary, error) {
	user, err := s.users.GetOrCreate(ctx, discordID)
	if err != nil {
		return nil, err
	}
	return summarize(user), nil
}

func summarize(user *models.UserProfile) *Summary {
	xp := XP(user.RepPositive, user.RepNegative)
	sum := &Summary{
		Positive:      user.RepPositive,
		Negative:      user.RepNegative,
		XP:            xp,
		Level:         LevelFor(xp),
		ResponseCount: user.ResponseCount,
	}
	if user.ResponseCount > 0 {
		sum.ResponseScore = float64(user.ResponseTotal) / float64(user.ResponseCount)
	}
	return sum
}

// RecordTradeFeedback applies a participant's +1/-1 vote for a completed
// trade. Returns false when this rater already voted on the trade.
func (s *Service) RecordTradeFeedback(ctx context.Context, tradeID int64, raterID, partnerID, role string, score int) (bool, error) {
	if score != 1 && score != -1 {
		return false, ErrInvalidScore
	}
	if raterID == partnerID {
		return false, ErrSelfRating
	}

	applied, err := s.feedback.RecordTradeFeedback(ctx, &models.TradeFeedback{
		TradeID:   tradeID,
		RaterID:   raterID,
		PartnerID: partnerID,
		Role:      role,
		Score:     score,
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.maybeGrantRole(ctx, partnerID)
	}
	return applied, nil
}

// RecordQuickFeedback applies an out-of-trade rating, enforcing the per-pair
// cooldown. When the cooldown blocks, returns false and the remaining wait.
func (s *Service) RecordQuickFeedback(ctx context.Context, raterID, targetID string, score int) (bool, time.Duration, error) {
	if score != 1 && score != -1 {
		return false, 0, ErrInvalidScore
	}
	if raterID == targetID {
		return false, 0, ErrSelfRating
	}

	applied, retryAfter, err := s.feedback.RecordQuickRating(ctx, raterID, targetID, score, s.cfg.QuickRatingCooldown, time.Now())
	if err != nil {
		return false, 0, err
	}
	if applied {
		s.maybeGrantRole(ctx, targetID)
	}
	return applied, retryAfter, nil
}

// SubmitReview attaches a written review to a trade the reviewer has already
// voted on. Returns false when no vote exists yet.
func (s *Service) SubmitReview(ctx context.Context, tradeID int64, reviewerID, targetID, text string) (bool, error) {
	return s.feedback.UpsertReview(ctx, &models.TradeReview{
		TradeID:    tradeID,
		ReviewerID: reviewerID,
		TargetID:   targetID,
		Review:     text,
	})
}

func (s *Service) RecentReviews(ctx context.Context, targetID string, limit int) ([]*models.TradeReview, error) {
	return s.feedback.RecentReviews(ctx, targetID, limit)
}

// Leaderboard returns the top users by weighted XP with their derived
// summaries.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*models.UserProfile, error) {
	return s.users.GetTopByReputation(ctx, limit)
}

// AddResponseScore folds a trade's responsiveness score into both parties'
// running averages.
func (s *Service) AddResponseScore(ctx context.Context, discordID string, score int) error {
	return s.feedback.AddResponseScore(ctx, discordID, score)
}

// SetLevel is a moderator override that back-solves the positive counter so
// the user's derived level equals the target, keeping their negative count.
// Returns the resulting summary.
func (s *Service) SetLevel(ctx context.Context, discordID string, level int) (*Summary, error) {
	if level < 0 || level > MaxLevel {
		return nil, fmt.Errorf("level must be between 0 and %d", MaxLevel)
	}

	user, err := s.users.GetOrCreate(ctx, discordID)
	if err != nil {
		return nil, err
	}

	needed := RequiredXP(level) + NegativeWeight*user.RepNegative
	positive := (needed + PositiveWeight - 1) / PositiveWeight

	user, err = s.users.SetReputation(ctx, discordID, positive, user.RepNegative)
	if err != nil {
		return nil, err
	}
	s.maybeGrantRole(ctx, discordID)
	return summarize(user), nil
}

// AdjustRep is a moderator override that applies raw deltas to the vote
// counters, floored at zero. Returns the resulting summary.
func (s *Service) AdjustRep(ctx context.Context, discordID string, deltaPositive, deltaNegative int) (*Summary, error) {
	user, err := s.users.AdjustReputation(ctx, discordID, deltaPositive, deltaNegative)
	if err != nil {
		return nil, err
	}
	s.maybeGrantRole(ctx, discordID)
	return summarize(user), nil
}

// maybeGrantRole grants the trusted-trader role once a user's derived level
// reaches the configured threshold. Grant failures are logged, never
// propagated: the rating that triggered the check has already been applied.
func (s *Service) maybeGrantRole(ctx context.Context, discordID string) {
	if s.roles == nil || s.cfg.RoleLevelThreshold <= 0 {
		return
	}

	user, err := s.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		return
	}
	if LevelFor(XP(user.RepPositive, user.RepNegative)) < s.cfg.RoleLevelThreshold {
		return
	}

	if err := s.roles.GrantLevelRole(ctx, discordID); err != nil {
		slog.Warn("Failed to grant level role",
			slog.String("type", "sys"),
			slog.String("user_id", discordID),
			slog.Any("error", err),
		)
	}
}
