package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/reputation"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

var Rep = discord.SlashCommandCreate{
	Name:        "rep",
	Description: "Reputation ratings",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "give",
			Description: "Rate a trader outside a trade (once per day per person)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Who to rate",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "rating",
					Description: "Thumbs up or down",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "👍 positive", Value: "up"},
						{Name: "👎 negative", Value: "down"},
					},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "show",
			Description: "Show a trader's reputation",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose reputation (default yours)",
					Required:    false,
				},
			},
		},
	},
}

func RepHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "give":
			return handleRepGive(ctx, b, e)
		case "show":
			return handleRepShow(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

func handleRepGive(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	target := data.User("user")
	score := 1
	if data.String("rating") == "down" {
		score = -1
	}

	if target.Bot {
		return utils.EH.CreateErrorEmbed(e, "Bots have no reputation to rate.")
	}

	applied, retryAfter, err := b.Reputation.RecordQuickFeedback(ctx, e.User().ID.String(), target.ID.String(), score)
	switch {
	case errors.Is(err, reputation.ErrSelfRating):
		return utils.EH.CreateErrorEmbed(e, "You can't rate yourself.")
	case err != nil:
		return utils.EH.CreateErrorEmbed(e, "Failed to record the rating. Please try again later.")
	case !applied:
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("You already rated %s recently. Try again in %s.",
			target.EffectiveName(), utils.FormatDuration(retryAfter)))
	}

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Rating for %s recorded.", target.EffectiveName()))
}

func handleRepShow(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	target := e.User()
	if user, ok := data.OptUser("user"); ok {
		target = user
	}

	sum, err := b.Reputation.Summarize(ctx, target.ID.String())
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load reputation. Please try again later.")
	}

	desc := fmt.Sprintf("**Level %d** (%d XP)\n👍 %d 👎 %d", sum.Level, sum.XP, sum.Positive, sum.Negative)
	if sum.ResponseCount > 0 {
		desc += fmt.Sprintf("\n⚡ Response score: %.1f/10 across %d trades", sum.ResponseScore, sum.ResponseCount)
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("⭐ %s's Reputation", target.EffectiveName()),
			Description: desc,
			Color:       utils.InfoColor,
		}},
	})
}
