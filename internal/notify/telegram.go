package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/models"
)

// TelegramChannel delivers reminder notifications as Telegram messages
type TelegramChannel struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
}

// NewTelegramChannel creates a Telegram channel from a bot token
func NewTelegramChannel(token string, logger *logrus.Logger) (*TelegramChannel, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &TelegramChannel{api: api, logger: logger}, nil
}

func (c *TelegramChannel) Name() string {
	return models.ChannelTelegram
}

func (c *TelegramChannel) Send(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error {
	if user.TelegramChatID == 0 {
		return fmt.Errorf("user %s has no telegram chat configured", user.ID)
	}

	text := fmt.Sprintf("⏰ *%s*", habit.Question)
	if habit.Details != "" {
		text += "\n" + habit.Details
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
