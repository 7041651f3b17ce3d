package telegram

import (
	"context"
	"fmt"
	"sync"

	"matchchat/internal/application"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const updateTimeout = 60

type Bot struct {
	token    string
	bot      *tgbotapi.BotAPI
	services *application.Service
	logger   application.Logger
	adminIDs map[int64]struct{}

	wg sync.WaitGroup
}

func NewBot(token string, adminIDs []int64, services *application.Service, logger application.Logger) *Bot {
	admins := make(map[int64]struct{})
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return &Bot{
		token:    token,
		services: services,
		logger:   logger,
		adminIDs: admins,
	}
}

func (b *Bot) Name() string { return "telegram" }

func (b *Bot) Init() error {
	bot, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = bot
	b.logger.Info("Telegram bot authorized on account %s", bot.Self.UserName)
	return nil
}

// Run polls for updates until ctx is done. Each message is handled on its
// own goroutine; the session lock keeps one chat's questions in order.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) Stop() {
	if b.bot != nil {
		b.bot.StopReceivingUpdates()
	}
}
