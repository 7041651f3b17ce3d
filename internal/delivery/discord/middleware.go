package discord

import (
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) isAdmin(userID string) bool {
	_, ok := b.adminIDs[userID]
	return ok
}

func (b *Bot) respondMessage(s *discordgo.Session, i *discordgo.Interaction, msg string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   flags,
		},
	})
	if err != nil {
		b.logger.Error("Failed to respond to /%s: %v", i.ApplicationCommandData().Name, err)
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.Interaction, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		b.logger.Error("Failed to respond to /%s: %v", i.ApplicationCommandData().Name, err)
	}
}

func (b *Bot) respondError(s *discordgo.Session, i *discordgo.Interaction, err error) {
	b.logFailure(i.ApplicationCommandData().Name, err)
	b.respondMessage(s, i, errorText(err), true)
}

// deferred acknowledges the interaction, runs work, and edits the reply with
// its result. Text beyond one message is sent as follow-ups.
func (b *Bot) deferred(s *discordgo.Session, i *discordgo.Interaction, work func() (string, []*discordgo.File, error)) {
	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Error("Failed to defer /%s: %v", i.ApplicationCommandData().Name, err)
		return
	}

	text, files, err := work()
	if err != nil {
		b.logFailure(i.ApplicationCommandData().Name, err)
		text, files = errorText(err), nil
	}

	chunks := splitMessage(text, maxMessageLength)
	first := chunks[0]
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &first, Files: files}); err != nil {
		b.logger.Error("Failed to edit /%s response: %v", i.ApplicationCommandData().Name, err)
		return
	}
	for _, chunk := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			b.logger.Error("Failed to send follow-up: %v", err)
			return
		}
	}
}

func (b *Bot) ensureAdmin(s *discordgo.Session, i *discordgo.Interaction, handler func(*discordgo.Session, *discordgo.Interaction)) {
	if !b.isAdmin(interactionUserID(i)) {
		b.respondMessage(s, i, "This command is for admins only.", true)
		return
	}
	handler(s, i)
}
