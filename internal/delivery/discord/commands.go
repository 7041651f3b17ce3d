package discord

import (
	"matchchat/internal/application"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) addCommands(commands ...*discordgo.ApplicationCommand) {
	b.commands = append(b.commands, commands...)
}

func (b *Bot) newCompetitionsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "competitions",
		Description: "List competitions with open event data",
	}
}

func (b *Bot) newMatchesCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "matches",
		Description: "List the matches of a competition season",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "competition_id", Description: "Competition ID", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "season_id", Description: "Season ID", Required: true},
		},
	}
}

func (b *Bot) newSelectCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "select",
		Description: "Pick the match to chat about",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "match_id", Description: "Match ID", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "competition_id", Description: "Competition ID", Required: false},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "season_id", Description: "Season ID", Required: false},
		},
	}
}

func (b *Bot) newAskCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ask",
		Description: "Ask a question about the selected match",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "question", Description: "Your question", Required: true},
		},
	}
}

func (b *Bot) newScoreCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "score",
		Description: "Final score and scorers of the selected match",
	}
}

func (b *Bot) newStatsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "stats",
		Description: "Team statistics of the selected match",
	}
}

func (b *Bot) newPlayerCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "player",
		Description: "Statistics of one player in the selected match",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Player name", Required: true},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "window",
				Description: "Part of the match",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Whole match", Value: application.WindowWholeMatch},
					{Name: "First half", Value: application.WindowFirstHalf},
					{Name: "Second half", Value: application.WindowSecondHalf},
					{Name: "Extra time", Value: application.WindowOvertime},
				},
			},
		},
	}
}

func (b *Bot) newCommentaryCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "commentary",
		Description: "Pre-match style commentary for the selected match",
	}
}

func (b *Bot) newResetCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "reset",
		Description: "Clear your conversation, keeping the match",
	}
}

func (b *Bot) newExportCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "export",
		Description: "Download your conversation as Excel",
	}
}

func (b *Bot) newSyncSheetCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "sync_sheet",
		Description: "Publish your conversation to Google Sheets (admins only)",
	}
}

func (b *Bot) newRefreshCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "refresh",
		Description: "Reload the selected match from the data provider (admins only)",
	}
}
