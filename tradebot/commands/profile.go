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

var Profile = discord.SlashCommandCreate{
	Name:        "profile",
	Description: "Trader profiles",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "show",
			Description: "Show a trader's profile",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose profile (default yours)",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "set",
			Description: "Update your profile",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "contact",
					Description: "How trade partners should reach you",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "timezone",
					Description: "Your timezone, e.g. UTC+2",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "bio",
					Description: "A short line about you",
					Required:    false,
				},
			},
		},
	},
}

func ProfileHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "show":
			return handleProfileShow(ctx, b, e)
		case "set":
			return handleProfileSet(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

func handleProfileShow(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	target := e.User()
	if user, ok := data.OptUser("user"); ok {
		target = user
	}
	targetID := target.ID.String()

	profile, err := b.UserRepository.GetOrCreate(ctx, targetID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load the profile. Please try again later.")
	}
	sum, err := b.Reputation.Summarize(ctx, targetID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load reputation. Please try again later.")
	}
	stockCount, _ := b.ListingRepository.CountStock(ctx, targetID)
	wishCount, _ := b.ListingRepository.CountWishlist(ctx, targetID)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Level %d** · 👍 %d 👎 %d\n", sum.Level, sum.Positive, sum.Negative))
	if sum.ResponseCount > 0 {
		sb.WriteString(fmt.Sprintf("⚡ Response score %.1f/10\n", sum.ResponseScore))
	}
	sb.WriteString(fmt.Sprintf("📦 %d in stock · 📝 %d wished\n", stockCount, wishCount))
	if profile.Contact != "" {
		sb.WriteString("\n**Contact:** " + profile.Contact + "\n")
	}
	if profile.Timezone != "" {
		sb.WriteString("**Timezone:** " + profile.Timezone + "\n")
	}
	if profile.Bio != "" {
		sb.WriteString("\n" + profile.Bio + "\n")
	}

	title := fmt.Sprintf("👤 %s", target.EffectiveName())
	if profile.Premium {
		title += " ✨"
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: sb.String(),
			Color:       utils.InfoColor,
		}},
	})
}

func handleProfileSet(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	userID := e.User().ID.String()

	var updated []string
	if contact, ok := data.OptString("contact"); ok {
		if err := b.UserRepository.SetContact(ctx, userID, contact); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to update your contact info.")
		}
		updated = append(updated, "contact")
	}
	if timezone, ok := data.OptString("timezone"); ok {
		if err := b.UserRepository.SetTimezone(ctx, userID, timezone); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to update your timezone.")
		}
		updated = append(updated, "timezone")
	}
	if bio, ok := data.OptString("bio"); ok {
		if err := b.UserRepository.SetBio(ctx, userID, bio); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to update your bio.")
		}
		updated = append(updated, "bio")
	}

	if len(updated) == 0 {
		return utils.EH.CreateErrorEmbed(e, "Nothing to update. Pass at least one of contact, timezone or bio.")
	}
	return utils.EH.CreateSuccessEmbed(e, "Updated your "+strings.Join(updated, ", ")+".")
}
