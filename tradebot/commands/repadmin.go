package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

var RepAdmin = discord.SlashCommandCreate{
	Name:                     "repadmin",
	Description:              "🛠️ Moderator overrides for trader reputation",
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionManageGuild),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "set-level",
			Description: "Set a trader's level directly",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Trader to modify",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "level",
					Description: "Target level (0-200)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "adjust",
			Description: "Add or subtract reputation votes",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Trader to modify",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "positive",
					Description: "Delta for positive votes (may be negative)",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "negative",
					Description: "Delta for negative votes (may be negative)",
					Required:    false,
				},
			},
		},
	},
}

func RepAdminHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		target := data.User("user")
		if target.Bot {
			return utils.EH.CreateErrorEmbed(e, "Bots do not carry reputation.")
		}

		switch *data.SubCommandName {
		case "set-level":
			sum, err := b.Reputation.SetLevel(ctx, target.ID.String(), data.Int("level"))
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to set the level: "+err.Error())
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("%s is now level %d (👍 %d 👎 %d).",
				target.EffectiveName(), sum.Level, sum.Positive, sum.Negative))
		case "adjust":
			dPos, hasPos := data.OptInt("positive")
			dNeg, hasNeg := data.OptInt("negative")
			if !hasPos && !hasNeg {
				return utils.EH.CreateErrorEmbed(e, "Provide at least one of positive/negative.")
			}
			sum, err := b.Reputation.AdjustRep(ctx, target.ID.String(), dPos, dNeg)
			if err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to adjust reputation. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("%s now holds 👍 %d 👎 %d (level %d).",
				target.EffectiveName(), sum.Positive, sum.Negative, sum.Level))
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}
