package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Stock,
	Wishlist,
	Alerts,
	Trade,
	Rep,
	RepAdmin,
	Review,
	Profile,
	Leaderboard,
	Search,
	Settings,
	Version,
}
