package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// SlackGateway posts one card per thread into the workspace channel and
// updates it as send results arrive. Posting is throttled to stay inside
// the workspace API rate limit.
type SlackGateway struct {
	api     *slack.Client
	channel string
	cards   CardStore
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewSlackGateway(log *slog.Logger, cfg config.SlackConfig, cards CardStore) *SlackGateway {
	if log == nil {
		log = slog.Default()
	}
	opts := []slack.Option{}
	if cfg.APIBase != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(cfg.APIBase, "/")+"/"))
	}
	return &SlackGateway{
		api:     slack.New(cfg.BotToken, opts...),
		channel: cfg.Channel,
		cards:   cards,
		limiter: rate.NewLimiter(rate.Limit(1), 5),
		logger:  log.With(slog.String("service", "notify")),
	}
}

// NotifyNewMessage posts a card for the inbound message and records its
// channel/ts on the thread for later updates.
func (g *SlackGateway) NotifyNewMessage(ctx context.Context, msg message.Message, cust customer.Customer, th thread.Thread) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	blocks := newMessageBlocks(msg, cust, th)
	channelID, ts, err := g.api.PostMessageContext(ctx, g.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fmt.Sprintf("New %s message from %s", msg.Channel, displayName(cust)), false),
	)
	if err != nil {
		return fmt.Errorf("post workspace card: %w", err)
	}
	if g.cards != nil {
		if err := g.cards.SetCard(ctx, th.ID, channelID, ts); err != nil {
			g.logger.Warn("store card reference failed",
				slog.String("thread_id", th.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

// NotifySendResult updates the thread's card with the reply outcome. When no
// card exists yet the result is posted as a fresh message.
func (g *SlackGateway) NotifySendResult(ctx context.Context, th thread.Thread, result provider.SendResult) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	blocks := sendResultBlocks(th, result)
	if th.CardChannel != "" && th.CardTs != "" {
		_, _, _, err := g.api.UpdateMessageContext(ctx, th.CardChannel, th.CardTs,
			slack.MsgOptionBlocks(blocks...),
			slack.MsgOptionText(sendResultSummary(result), false),
		)
		if err != nil {
			return fmt.Errorf("update workspace card: %w", err)
		}
		return nil
	}
	_, _, err := g.api.PostMessageContext(ctx, g.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(sendResultSummary(result), false),
	)
	if err != nil {
		return fmt.Errorf("post send result: %w", err)
	}
	return nil
}

func newMessageBlocks(msg message.Message, cust customer.Customer, th thread.Thread) []slack.Block {
	header := fmt.Sprintf("*%s* via %s", displayName(cust), msg.Channel)
	if cust.IsVip {
		header += " :star:"
	}
	content := msg.Content
	if truncated := message.Preview(content, 500); truncated != content {
		content = truncated + "…"
	}
	contextText := fmt.Sprintf("thread %s · status %s · unread %d", th.ID, th.Status, th.UnreadCount)
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, header, false, false),
			nil, nil,
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, content, false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
		),
	}
}

func sendResultBlocks(th thread.Thread, result provider.SendResult) []slack.Block {
	text := sendResultSummary(result)
	contextText := fmt.Sprintf("thread %s · channel %s", th.ID, th.Channel)
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
		),
	}
}

func sendResultSummary(result provider.SendResult) string {
	if result.Success {
		return fmt.Sprintf(":white_check_mark: Reply sent (%s)", result.ExternalMessageID)
	}
	return fmt.Sprintf(":x: Reply failed: %s", result.Error)
}

func displayName(cust customer.Customer) string {
	if cust.DisplayName != "" {
		return cust.DisplayName
	}
	return "Unknown customer"
}
