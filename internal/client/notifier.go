package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crushapp/crush-server/internal/config"
)

const notifyTimeout = 5 * time.Second

// Notifier delivers push notifications. Both calls are fire-and-forget:
// failures are logged by the caller, never surfaced to the triggering user.
type Notifier interface {
	NotifyLike(ctx context.Context, toUserID, fromUserID uint64, fromNickname string) error
	NotifyMatch(ctx context.Context, toUserID, withUserID uint64, withNickname string) error
}

// PushClient posts notification requests to the push gateway, which owns
// device tokens and APNs transport.
type PushClient struct {
	baseURL string
	http    *http.Client
}

func NewPushClient(cfg *config.Config) *PushClient {
	return &PushClient{
		baseURL: cfg.Notify.BaseURL,
		http:    &http.Client{Timeout: notifyTimeout},
	}
}

type pushRequest struct {
	ToUserID uint64 `json:"toUserId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ActorID  uint64 `json:"actorId"`
}

func (p *PushClient) NotifyLike(ctx context.Context, toUserID, fromUserID uint64, fromNickname string) error {
	if fromNickname == "" {
		fromNickname = "Someone"
	}
	return p.send(ctx, pushRequest{
		ToUserID: toUserID,
		Type:     "like",
		Title:    "New Like!",
		Body:     fromNickname + " likes you!",
		ActorID:  fromUserID,
	})
}

func (p *PushClient) NotifyMatch(ctx context.Context, toUserID, withUserID uint64, withNickname string) error {
	if withNickname == "" {
		withNickname = "Someone"
	}
	return p.send(ctx, pushRequest{
		ToUserID: toUserID,
		Type:     "match",
		Title:    "It's a Match!",
		Body:     "You and " + withNickname + " liked each other!",
		ActorID:  withUserID,
	})
}

func (p *PushClient) send(ctx context.Context, r pushRequest) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier is used when no push gateway is configured.
type NoopNotifier struct {
	Logger *slog.Logger
}

func (n *NoopNotifier) NotifyLike(_ context.Context, toUserID, fromUserID uint64, _ string) error {
	n.Logger.Debug("push gateway not configured, like notification skipped",
		"to", toUserID, "from", fromUserID)
	return nil
}

func (n *NoopNotifier) NotifyMatch(_ context.Context, toUserID, withUserID uint64, _ string) error {
	n.Logger.Debug("push gateway not configured, match notification skipped",
		"to", toUserID, "with", withUserID)
	return nil
}
