package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/trading"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

var Trade = discord.SlashCommandCreate{
	Name:        "trade",
	Description: "Open and manage trades",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "open",
			Description: "Ask a seller to trade an item",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "seller",
					Description: "Who you want to buy from",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "What you want to buy",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "accept",
			Description: "Accept a trade request (seller only)",
			Options:     []discord.ApplicationCommandOption{tradeIDOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reject",
			Description: "Decline a trade request (seller only)",
			Options:     []discord.ApplicationCommandOption{tradeIDOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "complete",
			Description: "Mark an open trade as done",
			Options:     []discord.ApplicationCommandOption{tradeIDOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "cancel",
			Description: "Cancel a trade you're part of",
			Options:     []discord.ApplicationCommandOption{tradeIDOption()},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "Show your active trades",
		},
	},
}

func tradeIDOption() discord.ApplicationCommandOptionInt {
	return discord.ApplicationCommandOptionInt{
		Name:        "id",
		Description: "Trade number (optional inside a trade thread)",
		Required:    false,
	}
}

func TradeHandler(b *tradebot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "open":
			return handleTradeOpen(ctx, b, e)
		case "accept":
			return handleTradeTransition(ctx, b, e, "accept")
		case "reject":
			return handleTradeTransition(ctx, b, e, "reject")
		case "complete":
			return handleTradeTransition(ctx, b, e, "complete")
		case "cancel":
			return handleTradeTransition(ctx, b, e, "cancel")
		case "list":
			return handleTradeList(ctx, b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand")
		}
	}
}

func handleTradeOpen(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	seller := data.User("seller")
	buyerID := e.User().ID.String()
	item := strings.TrimSpace(data.String("item"))

	if seller.Bot {
		return utils.EH.CreateErrorEmbed(e, "Bots don't trade.")
	}

	trade, err := b.TradeManager.Create(ctx, seller.ID.String(), buyerID, item)
	switch {
	case errors.Is(err, trading.ErrSelfTrade):
		return utils.EH.CreateErrorEmbed(e, "You can't open a trade with yourself.")
	case errors.Is(err, trading.ErrEmptyItem):
		return utils.EH.CreateErrorEmbed(e, "Item name cannot be empty.")
	case err != nil:
		return utils.EH.CreateErrorEmbed(e, "Failed to open the trade. Please try again later.")
	}

	msg := fmt.Sprintf("Trade #%d opened for **%s**.", trade.ID, trade.Item)
	if trade.ThreadID != nil {
		msg += fmt.Sprintf(" Head to <#%d> to talk it through.", *trade.ThreadID)
	}
	return utils.EH.CreateSuccessEmbed(e, msg)
}

func handleTradeTransition(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent, action string) error {
	tradeID, err := resolveTradeID(ctx, b, e)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Give a trade number, or run this inside the trade's thread.")
	}
	actorID := e.User().ID.String()

	var applied bool
	switch action {
	case "accept":
		applied, err = b.TradeManager.Accept(ctx, tradeID, actorID)
	case "reject":
		applied, err = b.TradeManager.Reject(ctx, tradeID, actorID)
	case "complete":
		applied, err = b.TradeManager.Complete(ctx, tradeID, actorID)
	case "cancel":
		applied, err = b.TradeManager.Cancel(ctx, tradeID, actorID)
	}
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
	}
	if !applied {
		return utils.EH.CreateErrorEmbed(e, transitionRefusal(action))
	}

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Trade #%d %s.", tradeID, pastTense(action)))
}

// transitionRefusal explains a no-op transition without leaking which guard
// failed; the caller either lacks the role or the trade moved on already.
func transitionRefusal(action string) string {
	switch action {
	case "accept", "reject":
		return "That didn't work. Only the seller can respond, and only while the trade is still pending."
	case "complete":
		return "That didn't work. Only a participant can complete a trade, and only while it's open."
	default:
		return "That didn't work. Only a participant can cancel, and only before the trade is closed."
	}
}

func pastTense(action string) string {
	switch action {
	case "accept":
		return "accepted"
	case "reject":
		return "rejected"
	case "complete":
		return "completed"
	default:
		return "cancelled"
	}
}

func resolveTradeID(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) (int64, error) {
	data := e.SlashCommandInteractionData()
	if id, ok := data.OptInt("id"); ok {
		return int64(id), nil
	}

	// No explicit number: assume the command was run inside a trade thread.
	trade, err := b.TradeRepository.GetByThread(ctx, int64(e.Channel().ID()))
	if err != nil {
		return 0, err
	}
	return trade.ID, nil
}

func handleTradeList(ctx context.Context, b *tradebot.Bot, e *handler.CommandEvent) error {
	trades, err := b.TradeManager.ActiveForUser(ctx, e.User().ID.String())
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load your trades. Please try again later.")
	}
	if len(trades) == 0 {
		return utils.EH.CreateInfoEmbed(e, "You have no active trades.")
	}

	var sb strings.Builder
	for _, trade := range trades {
		role := "buying"
		partner := trade.SellerID
		if trade.SellerID == e.User().ID.String() {
			role = "selling"
			partner = trade.BuyerID
		}
		sb.WriteString(fmt.Sprintf("• **#%d** %s **%s** with <@%s> (%s)\n",
			trade.ID, role, trade.Item, partner, trade.Status))
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       fmt.Sprintf("🤝 Your Active Trades (%d)", len(trades)),
			Description: sb.String(),
			Color:       utils.InfoColor,
		}},
	})
}
