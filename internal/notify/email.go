package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/habitloop/habitloop/internal/models"
)

// EmailChannel delivers reminder notifications over SMTP
type EmailChannel struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewEmailChannel creates an email channel. Username and password may be
// empty for an unauthenticated relay.
func NewEmailChannel(addr, from, username, password string) *EmailChannel {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &EmailChannel{addr: addr, from: from, auth: auth}
}

func (c *EmailChannel) Name() string {
	return models.ChannelEmail
}

func (c *EmailChannel) Send(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.from)
	fmt.Fprintf(&b, "To: %s\r\n", user.Email)
	fmt.Fprintf(&b, "Subject: Reminder: %s\r\n", habit.Question)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", user.DisplayName())
	fmt.Fprintf(&b, "It is time for: %s\r\n", habit.Question)
	if habit.Details != "" {
		fmt.Fprintf(&b, "\r\n%s\r\n", habit.Details)
	}
	fmt.Fprintf(&b, "\r\nScheduled for %s.\r\n", reminder.ScheduledAt.Format("Mon, 2 Jan 2006 15:04"))

	if err := smtp.SendMail(c.addr, c.auth, c.from, []string{user.Email}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}
