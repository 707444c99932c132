package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/matching"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

var Alerts = discord.SlashCommandCreate{
	Name:        "alerts",
	Description: "Get a DM when someone stocks an item you watch",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "add",
			Description: "Watch an item",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Item name to watch",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Stop watching an item",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Watched item (close matches work)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "Show your alerts",
		},
	},
}

func AlertsHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		userID := e.User().ID.String()

		switch *data.SubCommandName {
		case "add":
			item := strings.TrimSpace(data.String("item"))
			if item == "" {
				return utils.EH.CreateErrorEmbed(e, "Item name cannot be empty.")
			}

			user, err := b.UserRepository.GetOrCreate(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load your profile. Please try again later.")
			}
			entries, err := b.ListingRepository.ListAlerts(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to check your alerts. Please try again later.")
			}
			names := make([]string, len(entries))
			for i, entry := range entries {
				names[i] = entry.Item
			}
			// Re-adding an alert the user already has is a no-op, not a
			// cap violation.
			corrected, merges := planAddition(item, names)
			if !merges {
				if limit := b.Cfg.Trade.MaxAlerts(user.Premium); len(entries) >= limit {
					return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("You already have %d alerts, the maximum for your tier.", limit))
				}
			}

			if err := b.ListingRepository.AddAlert(ctx, userID, corrected); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to add the alert. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("You'll get a DM when someone stocks **%s**.", corrected))

		case "remove":
			query := strings.TrimSpace(data.String("item"))
			entries, err := b.ListingRepository.ListAlerts(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load your alerts. Please try again later.")
			}
			names := make([]string, len(entries))
			for i, entry := range entries {
				names[i] = entry.Item
			}
			item, _, ok := matching.Resolve(query, names, matching.ThresholdLoose)
			if !ok {
				return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("No alert of yours matches `%s`.", query))
			}
			if removed, err := b.ListingRepository.RemoveAlert(ctx, userID, item); err != nil || !removed {
				return utils.EH.CreateErrorEmbed(e, "Failed to remove the alert. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Stopped watching **%s**.", item))

		case "list":
			entries, err := b.ListingRepository.ListAlerts(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load your alerts. Please try again later.")
			}
			if len(entries) == 0 {
				return utils.EH.CreateInfoEmbed(e, "You have no alerts set up.")
			}

			var sb strings.Builder
			for _, entry := range entries {
				sb.WriteString("• **" + entry.Item + "**\n")
			}
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Title:       fmt.Sprintf("🔔 Your Alerts (%d)", len(entries)),
					Description: sb.String(),
					Color:       utils.InfoColor,
				}},
			})

		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}
