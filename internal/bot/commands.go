package bot

import "github.com/bwmarrin/discordgo"

func commandDefs() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "claw",
			Description: "Play the claw machine",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("start", "Insert a coin and start a round"),
				subcommand("stop", "Drop the claw"),
				subcommand("reset", "Clear the last win"),
				subcommand("refresh", "Shuffle the prizes and abort any round"),
				subcommand("status", "Show what the machine is doing"),
			},
		},
		{
			Name:        "prizes",
			Description: "Manage the prizes in the machine",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "List the prizes"),
				subcommand("liked", "List the prizes you liked"),
				subcommand("rename", "Rename a prize", idOption(), stringOption("name", "New name")),
				subcommand("symbol", "Change a prize's symbol", idOption(), stringOption("code", "Emoji or short text")),
				subcommand("add", "Add a prize",
					stringOption("name", "Prize name"),
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "symbol",
						Description: "Emoji or short text",
						Required:    false,
					}),
				subcommand("remove", "Remove a prize", idOption()),
				subcommand("like", "Like or unlike a prize", idOption()),
				subcommand("favorite", "Save a prize to favorites", idOption()),
			},
		},
		{
			Name:        "favorites",
			Description: "Saved prizes",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "List saved prizes"),
				subcommand("remove", "Remove a saved prize", idOption()),
			},
		},
		{
			Name:        "history",
			Description: "Past catches",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "Show recent catches"),
				subcommand("delete", "Delete one catch", idOption()),
				subcommand("clear", "Delete every catch"),
			},
		},
	}
}

func subcommand(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

func idOption() *discordgo.ApplicationCommandOption {
	return stringOption("id", "Id as shown by list")
}

func stringOption(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    true,
	}
}
