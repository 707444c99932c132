package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

const maxReviewLength = 300

var Review = discord.SlashCommandCreate{
	Name:        "review",
	Description: "Written trade reviews",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "write",
			Description: "Review a trade you've already rated",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "trade",
					Description: "Trade number",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "text",
					Description: "Your review (max 300 characters)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "show",
			Description: "Show a trader's recent reviews",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose reviews to show",
					Required:    true,
				},
			},
		},
	},
}

func ReviewHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "write":
			return handleReviewWrite(ctx, b, e)
		case "show":
			return handleReviewShow(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

func handleReviewWrite(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	tradeID := int64(data.Int("trade"))
	text := strings.TrimSpace(data.String("text"))
	reviewerID := e.User().ID.String()

	if text == "" {
		return utils.EH.CreateErrorEmbed(e, "A review needs some text.")
	}
	if len([]rune(text)) > maxReviewLength {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Reviews are capped at %d characters.", maxReviewLength))
	}

	trade, err := b.TradeRepository.GetByID(ctx, tradeID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Trade #%d doesn't exist.", tradeID))
	}

	var targetID string
	switch reviewerID {
	case trade.SellerID:
		targetID = trade.BuyerID
	case trade.BuyerID:
		targetID = trade.SellerID
	default:
		return utils.EH.CreateErrorEmbed(e, "You can only review trades you took part in.")
	}

	applied, err := b.Reputation.SubmitReview(ctx, tradeID, reviewerID, targetID, text)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to save the review. Please try again later.")
	}
	if !applied {
		return utils.EH.CreateErrorEmbed(e, "Rate the trade first (👍/👎), then write your review.")
	}

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Review saved for trade #%d.", tradeID))
}

func handleReviewShow(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	target := data.User("user")

	reviews, err := b.Reputation.RecentReviews(ctx, target.ID.String(), 10)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load reviews. Please try again later.")
	}
	if len(reviews) == 0 {
		return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("%s has no reviews yet.", target.EffectiveName()))
	}

	var sb strings.Builder
	for _, review := range reviews {
		name := b.NameCache.DisplayName(ctx, review.ReviewerID)
		sb.WriteString(fmt.Sprintf("**%s** (trade #%d):\n> %s\n", name, review.TradeID, review.Review))
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("📜 Reviews for %s", target.EffectiveName()),
			Description: sb.String(),
			Color:       utils.InfoColor,
		}},
	})
}
