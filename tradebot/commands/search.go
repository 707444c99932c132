package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/matching"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

const maxSearchResults = 20

var Search = discord.SlashCommandCreate{
	Name:        "search",
	Description: "🔎 Find traders stocking or wanting an item",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "item",
			Description:  "Item to look for",
			Required:     true,
			Autocomplete: true,
		},
	},
}

type searchHit struct {
	userID string
	items  []string
	best   int
}

func SearchHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		query := strings.TrimSpace(e.SlashCommandInteractionData().String("item"))

		stock, err := b.ListingRepository.SearchStock(ctx, nil)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Search failed. Please try again later.")
		}
		wishes, err := b.ListingRepository.SearchWishlist(ctx, nil)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Search failed. Please try again later.")
		}

		sellers := make(map[string]*searchHit)
		for _, entry := range stock {
			addSearchHit(sellers, query, entry.UserID, entry.Item, fmt.Sprintf("%s ×%d", entry.Item, entry.Quantity))
		}
		wanters := make(map[string]*searchHit)
		for _, entry := range wishes {
			addSearchHit(wanters, query, entry.UserID, entry.Item, entry.Item)
		}

		if len(sellers) == 0 && len(wanters) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("Nobody is stocking or wanting anything like **%s** right now.", query))
		}

		builder := discord.NewEmbedBuilder().
			SetTitle(fmt.Sprintf("🔎 Results for \"%s\"", query)).
			SetColor(utils.InfoColor)
		if desc := formatSearchHits(sellers); desc != "" {
			builder.AddField("📦 Have it", desc, false)
		}
		if desc := formatSearchHits(wanters); desc != "" {
			builder.AddField("⭐ Want it", desc, false)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{builder.Build()},
			Flags:  discord.MessageFlagSuppressNotifications,
		})
	}
}

func addSearchHit(hits map[string]*searchHit, query, userID, item, display string) {
	score := matching.Score(query, item)
	if score < matching.ThresholdLoose {
		return
	}
	hit, ok := hits[userID]
	if !ok {
		hit = &searchHit{userID: userID}
		hits[userID] = hit
	}
	hit.items = append(hit.items, display)
	if score > hit.best {
		hit.best = score
	}
}

// formatSearchHits renders at most maxSearchResults users, closest match
// first with user id as the deterministic tie break.
func formatSearchHits(hits map[string]*searchHit) string {
	ordered := make([]*searchHit, 0, len(hits))
	for _, hit := range hits {
		ordered = append(ordered, hit)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].best != ordered[j].best {
			return ordered[i].best > ordered[j].best
		}
		return ordered[i].userID < ordered[j].userID
	})
	if len(ordered) > maxSearchResults {
		ordered = ordered[:maxSearchResults]
	}

	var sb strings.Builder
	for _, hit := range ordered {
		sb.WriteString(fmt.Sprintf("<@%s>: %s\n", hit.userID, strings.Join(hit.items, ", ")))
	}
	return sb.String()
}

// SearchAutocomplete suggests known stock item names for the query option.
func SearchAutocomplete(b *tradebot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		items, err := b.ListingRepository.AllStockItems(ctx)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		return e.AutocompleteResult(suggestItems(strings.TrimSpace(e.Data.String("item")), items))
	}
}
