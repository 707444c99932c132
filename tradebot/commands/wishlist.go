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

var Wishlist = discord.SlashCommandCreate{
	Name:        "wishlist",
	Description: "Manage the items you are looking for",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "add",
			Description: "Add an item to your wishlist",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Item name",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "note",
					Description: "Optional note, e.g. the price you'd pay",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Remove an item from your wishlist",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Item name (close matches work)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "Show a wishlist",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose wishlist to show (default yours)",
					Required:    false,
				},
			},
		},
	},
}

func WishlistHandler(b *tradebot.Bot) handler.CommandHandler {
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
			note, _ := data.OptString("note")

			user, err := b.UserRepository.GetOrCreate(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load your profile. Please try again later.")
			}
			entries, err := b.ListingRepository.ListWishlist(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to check your wishlist. Please try again later.")
			}
			names := make([]string, len(entries))
			for i, entry := range entries {
				names[i] = entry.Item
			}
			// Updating the note on an item already listed is exempt from
			// the cap.
			corrected, merges := planAddition(item, names)
			if !merges {
				if limit := b.Cfg.Trade.MaxListings(user.Premium); len(entries) >= limit {
					return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Your wishlist is full (%d items max).", limit))
				}
			}

			if err := b.ListingRepository.AddWishlist(ctx, userID, corrected, note); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to add the item. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Added **%s** to your wishlist.", corrected))

		case "remove":
			query := strings.TrimSpace(data.String("item"))
			entries, err := b.ListingRepository.ListWishlist(ctx, userID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load your wishlist. Please try again later.")
			}
			names := make([]string, len(entries))
			for i, entry := range entries {
				names[i] = entry.Item
			}
			item, _, ok := matching.Resolve(query, names, matching.ThresholdLoose)
			if !ok {
				return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Nothing on your wishlist matches `%s`.", query))
			}
			if removed, err := b.ListingRepository.RemoveWishlist(ctx, userID, item); err != nil || !removed {
				return utils.EH.CreateErrorEmbed(e, "Failed to remove the item. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Removed **%s** from your wishlist.", item))

		case "list":
			targetID := userID
			whose := "Your"
			if user, ok := data.OptUser("user"); ok {
				targetID = user.ID.String()
				whose = user.EffectiveName() + "'s"
			}

			entries, err := b.ListingRepository.ListWishlist(ctx, targetID)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to load the wishlist. Please try again later.")
			}
			if len(entries) == 0 {
				return utils.EH.CreateInfoEmbed(e, whose+" wishlist is empty.")
			}

			var sb strings.Builder
			for _, entry := range entries {
				sb.WriteString("• **" + entry.Item + "**")
				if entry.Note != "" {
					sb.WriteString(": " + entry.Note)
				}
				sb.WriteString("\n")
			}

			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Title:       fmt.Sprintf("📝 %s Wishlist (%d)", whose, len(entries)),
					Description: sb.String(),
					Color:       utils.InfoColor,
				}},
			})

		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}
