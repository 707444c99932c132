package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/database/repositories"
	"github.com/ravenhold/tradehall/tradebot/matching"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

const embedColor = 0x2b2d31

// NotifierConfig pins the notifier to the community guild and the role it
// may grant.
type NotifierConfig struct {
	GuildID   snowflake.ID
	LevelRole snowflake.ID
}

// Notifier performs all Discord side effects: trade threads, DMs, feedback
// prompts and role grants. It implements trading.Notifier and
// reputation.RoleGranter.
type Notifier struct {
	client bot.Client
	guilds repositories.GuildSettingsRepository
	cfg    NotifierConfig
}

func NewNotifier(client bot.Client, guilds repositories.GuildSettingsRepository, cfg NotifierConfig) *Notifier {
	return &Notifier{
		client: client,
		guilds: guilds,
		cfg:    cfg,
	}
}

func (n *Notifier) SetClient(client bot.Client) {
	n.client = client
}

// OpenTradeThread creates the private thread for a trade and pulls both
// participants in.
func (n *Notifier) OpenTradeThread(ctx context.Context, trade *models.Trade) (int64, error) {
	settings, err := n.guilds.Get(ctx, int64(n.cfg.GuildID))
	if err != nil {
		return 0, err
	}
	if settings.TradeThreadChannelID == nil {
		return 0, fmt.Errorf("no trade thread channel configured for guild %s", n.cfg.GuildID)
	}

	thread, err := n.client.Rest().CreateThread(
		snowflake.ID(*settings.TradeThreadChannelID),
		discord.GuildPrivateThreadCreate{
			Name:                fmt.Sprintf("trade-%d-%s", trade.ID, truncate(trade.Item, 40)),
			AutoArchiveDuration: discord.AutoArchiveDuration3d,
			Invitable:           false,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create trade thread: %w", err)
	}

	// Creation is only durable once both parties are reachable. A failed
	// add bubbles up so the caller can roll the trade back.
	for _, id := range []string{trade.SellerID, trade.BuyerID} {
		if err := n.client.Rest().AddThreadMember(thread.ID(), snowflake.MustParse(id)); err != nil {
			if derr := n.client.Rest().DeleteChannel(thread.ID()); derr != nil {
				slog.Debug("Failed to delete orphaned trade thread",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", derr),
				)
			}
			return 0, fmt.Errorf("failed to add %s to trade thread: %w", id, err)
		}
	}

	intro := discord.NewEmbedBuilder().
		SetTitle("🤝 New Trade Request").
		SetDescription(fmt.Sprintf("<@%s> wants to buy **%s** from <@%s>.\n\nSeller: use `/trade accept` or `/trade reject` to respond.",
			trade.BuyerID, trade.Item, trade.SellerID)).
		SetColor(embedColor).
		SetFooterText(fmt.Sprintf("Trade #%d", trade.ID)).
		Build()

	if _, err := n.client.Rest().CreateMessage(thread.ID(), discord.NewMessageCreateBuilder().
		SetEmbeds(intro).
		Build()); err != nil {
		return 0, fmt.Errorf("failed to post trade intro: %w", err)
	}

	return int64(thread.ID()), nil
}

// NotifyStatusChange announces a transition in the trade thread, falling
// back to DMs when the trade has no thread.
func (n *Notifier) NotifyStatusChange(ctx context.Context, trade *models.Trade, status models.TradeStatus) error {
	var title, body string
	switch status {
	case models.TradeOpen:
		title = "✅ Trade Accepted"
		body = fmt.Sprintf("<@%s> accepted the request for **%s**. Arrange the exchange here, then either side can run `/trade complete`.", trade.SellerID, trade.Item)
	case models.TradeRejected:
		title = "❌ Trade Rejected"
		body = fmt.Sprintf("<@%s> declined the request for **%s**.", trade.SellerID, trade.Item)
	case models.TradeCompleted:
		title = "🎉 Trade Completed"
		body = fmt.Sprintf("The trade for **%s** is done. Thanks, <@%s> and <@%s>!", trade.Item, trade.SellerID, trade.BuyerID)
	case models.TradeCancelled:
		title = "🚫 Trade Cancelled"
		body = fmt.Sprintf("The trade for **%s** was cancelled.", trade.Item)
	default:
		return nil
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(body).
		SetColor(embedColor).
		SetFooterText(fmt.Sprintf("Trade #%d", trade.ID)).
		Build()

	if trade.ThreadID != nil {
		_, err := n.client.Rest().CreateMessage(snowflake.ID(*trade.ThreadID), discord.NewMessageCreateBuilder().
			SetEmbeds(embed).
			Build())
		return err
	}

	for _, id := range []string{trade.SellerID, trade.BuyerID} {
		if err := n.sendDM(id, embed); err != nil {
			return err
		}
	}
	return nil
}

// PromptFeedback posts the rate-your-partner buttons for a completed trade.
func (n *Notifier) PromptFeedback(ctx context.Context, trade *models.Trade) error {
	if trade.ThreadID == nil {
		return nil
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("⭐ Rate This Trade").
		SetDescription("How did it go? Each of you can rate your partner once.").
		SetColor(embedColor).
		SetFooterText(fmt.Sprintf("Trade #%d", trade.ID)).
		Build()

	_, err := n.client.Rest().CreateMessage(snowflake.ID(*trade.ThreadID), discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(
			discord.NewSuccessButton("👍 Good trade", fmt.Sprintf("/trade_feedback/%d/up", trade.ID)),
			discord.NewDangerButton("👎 Bad trade", fmt.Sprintf("/trade_feedback/%d/down", trade.ID)),
		).
		Build())
	return err
}

// WarnInactivity posts the single inactivity warning in the trade thread.
func (n *Notifier) WarnInactivity(ctx context.Context, trade *models.Trade, idle time.Duration) error {
	if trade.ThreadID == nil {
		return nil
	}
	_, err := n.client.Rest().CreateMessage(snowflake.ID(*trade.ThreadID), discord.NewMessageCreateBuilder().
		SetContentf("<@%s> <@%s> This trade has been quiet for %s. It will be cancelled automatically if nobody posts here soon.",
			trade.SellerID, trade.BuyerID, utils.FormatDuration(idle)).
		Build())
	return err
}

// NotifyInactivityCancel DMs both parties that the sweep closed their trade.
func (n *Notifier) NotifyInactivityCancel(ctx context.Context, trade *models.Trade) error {
	embed := discord.NewEmbedBuilder().
		SetTitle("🚫 Trade Cancelled for Inactivity").
		SetDescription(fmt.Sprintf("Your trade for **%s** went unanswered too long and was closed automatically.", trade.Item)).
		SetColor(embedColor).
		SetFooterText(fmt.Sprintf("Trade #%d", trade.ID)).
		Build()

	var firstErr error
	for _, id := range []string{trade.SellerID, trade.BuyerID} {
		if err := n.sendDM(id, embed); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// TeardownThread removes both participants, archives and locks the thread,
// then deletes it. Every step is best-effort; a half-torn-down thread is
// harmless.
func (n *Notifier) TeardownThread(ctx context.Context, trade *models.Trade) error {
	if trade.ThreadID == nil {
		return nil
	}
	threadID := snowflake.ID(*trade.ThreadID)

	for _, id := range []string{trade.SellerID, trade.BuyerID} {
		if err := n.client.Rest().RemoveThreadMember(threadID, snowflake.MustParse(id)); err != nil {
			slog.Debug("Failed to remove thread member",
				slog.String("type", "trade"),
				slog.Int64("trade_id", trade.ID),
				slog.String("user_id", id),
				slog.Any("error", err),
			)
		}
	}

	if _, err := n.client.Rest().UpdateChannel(threadID, discord.GuildThreadUpdate{
		Archived: json.Ptr(true),
		Locked:   json.Ptr(true),
	}); err != nil {
		slog.Debug("Failed to archive trade thread",
			slog.String("type", "trade"),
			slog.Int64("trade_id", trade.ID),
			slog.Any("error", err),
		)
	}

	if err := n.client.Rest().DeleteChannel(threadID); err != nil {
		slog.Debug("Failed to delete trade thread",
			slog.String("type", "trade"),
			slog.Int64("trade_id", trade.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

// GrantLevelRole gives a user the trusted-trader role. Granting a role the
// user already holds is a no-op on Discord's side, so retries are safe.
func (n *Notifier) GrantLevelRole(ctx context.Context, discordID string) error {
	if n.cfg.LevelRole == 0 {
		return nil
	}
	return n.client.Rest().AddMemberRole(n.cfg.GuildID, snowflake.MustParse(discordID), n.cfg.LevelRole)
}

// SendAlertDigest DMs one user everything that matched their alerts in a
// single posting.
func (n *Notifier) SendAlertDigest(ctx context.Context, userID, posterID string, matches []matching.AlertMatch) error {
	if len(matches) == 0 {
		return nil
	}

	desc := fmt.Sprintf("<@%s> just listed items matching your alerts:\n", posterID)
	for _, m := range matches {
		desc += fmt.Sprintf("\n• **%s** (matched your alert `%s`)", m.Item, m.Watch)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🔔 Item Alert").
		SetDescription(desc).
		SetColor(embedColor).
		Build()

	return n.sendDM(userID, embed)
}

func (n *Notifier) sendDM(discordID string, embed discord.Embed) error {
	dmChannel, err := n.client.Rest().CreateDMChannel(snowflake.MustParse(discordID))
	if err != nil {
		return fmt.Errorf("failed to create DM channel with %s: %w", discordID, err)
	}
	_, err = n.client.Rest().CreateMessage(dmChannel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	})
	if err != nil {
		return fmt.Errorf("failed to DM %s: %w", discordID, err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
