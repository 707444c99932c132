package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/reputation"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

const leaderboardPageSize = 10

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 The most reputable traders",
}

func LeaderboardHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		users, err := b.Reputation.Leaderboard(ctx, 100)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to load the leaderboard. Please try again later.")
		}
		if len(users) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nobody has any reputation yet. Go trade!")
		}

		totalPages := int(math.Ceil(float64(len(users)) / float64(leaderboardPageSize)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * leaderboardPageSize
				end := min(start+leaderboardPageSize, len(users))

				// Pages render on later button clicks, after the command
				// context has expired.
				pageCtx, pageCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer pageCancel()

				var sb strings.Builder
				for i, user := range users[start:end] {
					sb.WriteString(formatLeaderboardRow(pageCtx, b, start+i+1, user))
				}

				embed.
					SetTitle("🏆 Reputation Leaderboard").
					SetDescription(sb.String()).
					SetColor(utils.InfoColor).
					SetFooterText(fmt.Sprintf("Page %d/%d", page+1, totalPages))
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func formatLeaderboardRow(ctx context.Context, b *tradebot.Bot, rank int, user *models.UserProfile) string {
	medal := fmt.Sprintf("%d.", rank)
	switch rank {
	case 1:
		medal = "🥇"
	case 2:
		medal = "🥈"
	case 3:
		medal = "🥉"
	}

	xp := reputation.XP(user.RepPositive, user.RepNegative)
	name := b.NameCache.DisplayName(ctx, user.DiscordID)
	return fmt.Sprintf("%s **%s** · Level %d · 👍 %d 👎 %d\n",
		medal, name, reputation.LevelFor(xp), user.RepPositive, user.RepNegative)
}
