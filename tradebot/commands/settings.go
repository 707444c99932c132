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

var Settings = discord.SlashCommandCreate{
	Name:                     "settings",
	Description:              "⚙️ Configure the trading bot for this server",
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionManageGuild),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "trade-channel",
			Description: "Channel where trade announcements are posted",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionChannel{
					Name:         "channel",
					Description:  "Target text channel",
					Required:     true,
					ChannelTypes: []discord.ChannelType{discord.ChannelTypeGuildText},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "thread-channel",
			Description: "Channel under which private trade threads are created",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionChannel{
					Name:         "channel",
					Description:  "Target text channel",
					Required:     true,
					ChannelTypes: []discord.ChannelType{discord.ChannelTypeGuildText},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "show",
			Description: "Show the current configuration",
		},
	},
}

func SettingsHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "trade-channel":
			channel := data.Channel("channel")
			if err := b.GuildSettingsRepository.SetTradeChannel(ctx, int64(*guildID), int64(channel.ID)); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to save the setting. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Trade announcements will go to <#%d>.", channel.ID))
		case "thread-channel":
			channel := data.Channel("channel")
			if err := b.GuildSettingsRepository.SetTradeThreadChannel(ctx, int64(*guildID), int64(channel.ID)); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to save the setting. Please try again later.")
			}
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Trade threads will be created under <#%d>.", channel.ID))
		case "show":
			return handleSettingsShow(ctx, b, e, int64(*guildID))
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

func handleSettingsShow(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent, guildID int64) error {
	settings, err := b.GuildSettingsRepository.Get(ctx, guildID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load the settings. Please try again later.")
	}

	channelField := func(id *int64) string {
		if id == nil {
			return "not set"
		}
		return fmt.Sprintf("<#%d>", *id)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("⚙️ Trading Settings").
		AddField("Trade channel", channelField(settings.TradeChannelID), true).
		AddField("Thread channel", channelField(settings.TradeThreadChannelID), true).
		SetColor(utils.InfoColor).
		Build()

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed},
		Flags:  discord.MessageFlagEphemeral,
	})
}
