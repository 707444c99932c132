package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/utils"
)

// TradeFeedbackComponentHandler handles the 👍/👎 buttons posted in a trade
// thread after completion. Custom IDs look like /trade_feedback/42/up.
func TradeFeedbackComponentHandler(b *tradebot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		data, ok := e.Data.(discord.ButtonInteractionData)
		if !ok {
			return fmt.Errorf("invalid interaction type")
		}

		tradeIDRaw, direction, ok := strings.Cut(strings.TrimPrefix(data.CustomID(), "/trade_feedback/"), "/")
		if !ok {
			return fmt.Errorf("malformed feedback custom id: %s", data.CustomID())
		}
		tradeID, err := strconv.ParseInt(tradeIDRaw, 10, 64)
		if err != nil {
			return fmt.Errorf("malformed feedback trade id: %s", tradeIDRaw)
		}
		score := 1
		if direction == "down" {
			score = -1
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		trade, err := b.TradeManager.Get(ctx, tradeID)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "This trade no longer exists.")
		}
		if trade.Status != models.TradeCompleted {
			return utils.EH.CreateEphemeralError(e, "You can only rate a completed trade.")
		}

		raterID := e.User().ID.String()
		var partnerID, role string
		switch raterID {
		case trade.BuyerID:
			partnerID, role = trade.SellerID, "buyer"
		case trade.SellerID:
			partnerID, role = trade.BuyerID, "seller"
		default:
			return utils.EH.CreateEphemeralError(e, "Only the two traders can rate this trade.")
		}

		applied, err := b.Reputation.RecordTradeFeedback(ctx, tradeID, raterID, partnerID, role, score)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "Failed to record your rating. Please try again later.")
		}
		if !applied {
			return utils.EH.CreateEphemeralError(e, "You already rated this trade.")
		}

		word := "positive"
		if score < 0 {
			word = "negative"
		}
		return utils.EH.CreateEphemeralSuccess(e, fmt.Sprintf("Recorded your %s rating for <@%s>. Thanks!", word, partnerID))
	}
}
