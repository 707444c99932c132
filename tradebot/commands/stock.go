package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/matching"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

var Stock = discord.SlashCommandCreate{
	Name:        "stock",
	Description: "Manage the items you have up for trade",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "add",
			Description: "Add an item to your stock",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "item",
					Description:  "Item name",
					Required:     true,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "How many you have (default 1)",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Remove an item from your stock",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "item",
					Description:  "Item name (close matches work)",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "quantity",
			Description: "Change the quantity of a stocked item",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "item",
					Description:  "Item name (close matches work)",
					Required:     true,
					Autocomplete: true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "New quantity (0 removes the item)",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "Show a stock list",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose stock to show (default yours)",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "clear",
			Description: "Remove everything from your stock",
		},
	},
}

func StockHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "add":
			return handleStockAdd(ctx, b, e)
		case "remove":
			return handleStockRemove(ctx, b, e)
		case "quantity":
			return handleStockQuantity(ctx, b, e)
		case "list":
			return handleStockList(ctx, b, e)
		case "clear":
			return handleStockClear(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

// handleStockAdd stores the item, silently correcting near-exact matches of
// names the caller already stocks so one item does not fragment into
// spelling variants. Topping up an existing entry never counts against the
// tier cap.
func handleStockAdd(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	userID := e.User().ID.String()

	item := strings.TrimSpace(data.String("item"))
	if item == "" {
		return utils.EH.CreateErrorEmbed(e, "Item name cannot be empty.")
	}
	quantity := 1
	if q, ok := data.OptInt("quantity"); ok {
		if q < 1 {
			return utils.EH.CreateErrorEmbed(e, "Quantity must be at least 1.")
		}
		quantity = q
	}

	user, err := b.UserRepository.GetOrCreate(ctx, userID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load your profile. Please try again later.")
	}

	entries, err := b.ListingRepository.ListStock(ctx, userID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to check your stock. Please try again later.")
	}
	corrected, merges := planAddition(item, stockNames(entries))
	if !merges {
		if limit := b.Cfg.Trade.MaxListings(user.Premium); len(entries) >= limit {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Your stock is full (%d items max).", limit))
		}
	}

	if err := b.ListingRepository.AddStock(ctx, userID, corrected, quantity); err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to add the item. Please try again later.")
	}

	// Fan out to watchers in the background so the response stays snappy.
	go func() {
		alertCtx, alertCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer alertCancel()
		b.AlertService.NotifyStockChange(alertCtx, userID, corrected, quantity)
	}()

	msg := fmt.Sprintf("Added **%s** ×%d to your stock.", corrected, quantity)
	if corrected != item {
		msg += fmt.Sprintf(" (matched existing item name `%s`)", corrected)
	}
	return utils.EH.CreateSuccessEmbed(e, msg)
}

func handleStockRemove(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	userID := e.User().ID.String()
	query := strings.TrimSpace(data.String("item"))

	item, ok, err := resolveOwnStockItem(ctx, b, userID, query)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load your stock. Please try again later.")
	}
	if !ok {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Nothing in your stock matches `%s`.", query))
	}

	if removed, err := b.ListingRepository.RemoveStock(ctx, userID, item); err != nil || !removed {
		return utils.EH.CreateErrorEmbed(e, "Failed to remove the item. Please try again later.")
	}
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Removed **%s** from your stock.", item))
}

func handleStockQuantity(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	userID := e.User().ID.String()
	query := strings.TrimSpace(data.String("item"))
	quantity := data.Int("quantity")

	if quantity < 0 {
		return utils.EH.CreateErrorEmbed(e, "Quantity cannot be negative.")
	}

	item, ok, err := resolveOwnStockItem(ctx, b, userID, query)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load your stock. Please try again later.")
	}
	if !ok {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("Nothing in your stock matches `%s`.", query))
	}

	updated, err := b.ListingRepository.SetStockQuantity(ctx, userID, item, quantity)
	if err != nil || !updated {
		return utils.EH.CreateErrorEmbed(e, "Failed to update the quantity. Please try again later.")
	}
	if quantity == 0 {
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Removed **%s** from your stock.", item))
	}

	// Restocking counts as the item becoming available again.
	go func() {
		alertCtx, alertCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer alertCancel()
		b.AlertService.NotifyStockChange(alertCtx, userID, item, quantity)
	}()

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("**%s** is now ×%d.", item, quantity))
}

func handleStockList(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	targetID := e.User().ID.String()
	whose := "Your"
	if user, ok := data.OptUser("user"); ok {
		targetID = user.ID.String()
		whose = user.EffectiveName() + "'s"
	}

	entries, err := b.ListingRepository.ListStock(ctx, targetID)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load the stock list. Please try again later.")
	}
	if len(entries) == 0 {
		return utils.EH.CreateInfoEmbed(e, whose+" stock is empty.")
	}

	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("• **%s** ×%d\n", entry.Item, entry.Quantity))
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("📦 %s Stock (%d)", whose, len(entries)),
			Description: sb.String(),
			Color:       utils.InfoColor,
		}},
	})
}

func handleStockClear(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	removed, err := b.ListingRepository.ClearStock(ctx, e.User().ID.String())
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to clear your stock. Please try again later.")
	}
	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Cleared %d item(s) from your stock.", removed))
}

// resolveOwnStockItem finds the entry in the user's own stock that best
// matches the query, using the forgiving threshold since the candidate set
// is small and owned by the caller.
func resolveOwnStockItem(ctx context.Context, b *tradebot.Bot, userID, query string) (string, bool, error) {
	entries, err := b.ListingRepository.ListStock(ctx, userID)
	if err != nil {
		return "", false, err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Item
	}
	match, _, ok := matching.Resolve(query, names, matching.ThresholdLoose)
	return match, ok, nil
}

// StockAutocomplete suggests item names while the user types: their own
// stock for remove/quantity, the community catalog for add.
func StockAutocomplete(b *tradebot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "item" {
			return nil
		}
		query := strings.TrimSpace(e.Data.String("item"))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var names []string
		var err error
		if sub := e.Data.SubCommandName; sub != nil && *sub == "add" {
			names, err = b.ListingRepository.AllStockItems(ctx)
		} else {
			entries, listErr := b.ListingRepository.ListStock(ctx, e.User().ID.String())
			err = listErr
			for _, entry := range entries {
				names = append(names, entry.Item)
			}
		}
		if err != nil {
			return e.AutocompleteResult(nil)
		}

		return e.AutocompleteResult(suggestItems(query, names))
	}
}

// suggestItems ranks candidate names for autocomplete, returning at most
// Discord's 25-choice limit.
func suggestItems(query string, names []string) []discord.AutocompleteChoice {
	const maxChoices = 25

	choices := make([]discord.AutocompleteChoice, 0, maxChoices)
	if query == "" {
		for _, name := range names {
			if len(choices) == maxChoices {
				break
			}
			choices = append(choices, discord.AutocompleteChoiceString{Name: name, Value: name})
		}
		return choices
	}

	for _, m := range fuzzy.Find(query, names) {
		if len(choices) == maxChoices {
			break
		}
		choices = append(choices, discord.AutocompleteChoiceString{Name: m.Str, Value: m.Str})
	}
	return choices
}
