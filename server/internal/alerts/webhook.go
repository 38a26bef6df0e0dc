package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
)

// deliver sends webhook notifications for a to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), e.client.Timeout)
	defer cancel()

	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.sendSlack(ctx, url, a)
		case "teams":
			err = e.sendTeams(ctx, url, a)
		case "http":
			err = e.sendHTTP(ctx, url, a)
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"rule", a.RuleName,
				"state", a.State,
			)
		}
	}
}

func (e *Engine) sendSlack(ctx context.Context, url string, a *Alert) error {
	title := fmt.Sprintf("%s %s", severityLabel(a.Severity), a.RuleName)
	if a.State == "resolved" {
		title = fmt.Sprintf("[RESOLVED] %s", a.RuleName)
	}
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("*%s* %s", title, a.Message),
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(
				slack.NewTextBlockObject(slack.PlainTextType, title, false, false),
			),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, a.Message, false, false),
				[]*slack.TextBlockObject{
					slack.NewTextBlockObject(slack.MarkdownType, "*Dataset*\n"+a.Dataset, false, false),
					slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Value*\n%.2f%%", a.Value), false, false),
				},
				nil,
			),
		}},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, url, e.client, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func (e *Engine) sendTeams(ctx context.Context, url string, a *Alert) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("Gas Alert: %s", a.RuleName),
		"text":       a.Message,
	}
	body, _ := json.Marshal(payload)
	return e.post(ctx, url, body)
}

func (e *Engine) sendHTTP(ctx context.Context, url string, a *Alert) error {
	body, _ := json.Marshal(map[string]interface{}{"alert": a})
	return e.post(ctx, url, body)
}

func (e *Engine) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
