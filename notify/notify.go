// Package notify delivers run start and finish messages.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/logger"
)

// Notifier sends a short text message. Delivery failures are returned but must never fail a run.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Slack posts to an incoming webhook.
type Slack struct {
	url        string
	username   string
	httpClient *http.Client
}

func NewSlack(webhookURL string, username string) *Slack {
	return &Slack{url: webhookURL, username: username, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text, Username: s.username}
	return slack.PostWebhookCustomHTTPContext(ctx, s.url, s.httpClient, msg)
}

// Log writes messages to the logger only. It is used when no webhook is configured.
type Log struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, text string) error {
	l.log.Info("notification: ", text)
	return nil
}

// Send calls n and logs, rather than returns, any error.
func Send(ctx context.Context, log logger.Logger, n Notifier, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		log.Warn("unable to send notification: ", err)
	}
}

func StartedText(table string) string {
	return fmt.Sprintf("Updating %v %v", table, constants.SlackEmojiLoading)
}

func DoneText(table string, rows int64) string {
	return fmt.Sprintf("%v updated, %v rows loaded %v", table, rows, constants.SlackEmojiDone)
}

func FailedText(table string, err error) string {
	return fmt.Sprintf("%v update failed: %v %v", table, err, constants.SlackEmojiFailed)
}
