package discord

import (
	"context"
	"fmt"
	"strings"

	"matchchat/internal/application"
	"matchchat/pkg/config"

	"github.com/bwmarrin/discordgo"
)

type commandHandler struct {
	adminOnly bool
	handle    func(s *discordgo.Session, i *discordgo.Interaction)
}

type Bot struct {
	session  *discordgo.Session
	services *application.Service
	logger   application.Logger

	ctx              context.Context
	adminIDs         map[string]struct{}
	allowedChannelID string
	guildID          string

	commands []*discordgo.ApplicationCommand
	handlers map[string]commandHandler
}

func NewBot(cfg *config.Config, services *application.Service, logger application.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	admins := make(map[string]struct{})
	for _, id := range cfg.AdminUserIDs {
		cleanID := strings.TrimSpace(id)
		if cleanID != "" {
			admins[cleanID] = struct{}{}
		}
	}

	b := &Bot{
		session:          s,
		services:         services,
		logger:           logger,
		ctx:              context.Background(),
		adminIDs:         admins,
		allowedChannelID: cfg.AllowedChannelID,
		guildID:          cfg.DiscordGuildID,
	}

	b.addCommands(
		b.newCompetitionsCommand(),
		b.newMatchesCommand(),
		b.newSelectCommand(),
		b.newAskCommand(),
		b.newScoreCommand(),
		b.newStatsCommand(),
		b.newPlayerCommand(),
		b.newCommentaryCommand(),
		b.newResetCommand(),
		b.newExportCommand(),
		b.newSyncSheetCommand(),
		b.newRefreshCommand(),
	)
	b.handlers = map[string]commandHandler{
		"competitions": {handle: b.handleCompetitions},
		"matches":      {handle: b.handleMatches},
		"select":       {handle: b.handleSelect},
		"ask":          {handle: b.handleAsk},
		"score":        {handle: b.handleScore},
		"stats":        {handle: b.handleStats},
		"player":       {handle: b.handlePlayer},
		"commentary":   {handle: b.handleCommentary},
		"reset":        {handle: b.handleReset},
		"export":       {handle: b.handleExport},
		"sync_sheet":   {adminOnly: true, handle: b.handleSyncSheet},
		"refresh":      {adminOnly: true, handle: b.handleRefresh},
	}
	return b, nil
}

func (b *Bot) Name() string { return "discord" }

func (b *Bot) Init() error {
	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(b.onMessage)
	return nil
}

func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return err
	}

	b.logger.Info("Discord bot started, registering %d slash commands", len(b.commands))

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, b.commands)
	if err != nil {
		b.logger.Error("Failed to register commands: %v", err)
	} else {
		b.logger.Info("Slash commands registered")
	}

	<-ctx.Done()
	return nil
}

func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("Discord close: %v", err)
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	h, ok := b.handlers[name]
	if !ok {
		return
	}
	if h.adminOnly {
		b.ensureAdmin(s, i.Interaction, h.handle)
		return
	}
	h.handle(s, i.Interaction)
}

// onMessage treats plain messages in the allowed channel, or ones that
// mention the bot elsewhere, as questions.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	botID := s.State.User.ID
	mentioned := false
	for _, u := range m.Mentions {
		if u.ID == botID {
			mentioned = true
			break
		}
	}

	switch {
	case b.allowedChannelID != "" && m.ChannelID == b.allowedChannelID:
	case mentioned:
	default:
		return
	}

	question := stripMention(m.Content, botID)
	if question == "" {
		return
	}
	b.handleMessageQuestion(s, m, question)
}
