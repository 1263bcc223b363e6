package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crushapp/crush-server/internal/config"
)

const chatTimeout = 5 * time.Second

// ChatProvisioner provisions chat rooms on the external chat service.
//
// Callers treat CreateRoom as idempotent by requestedID: the room id is
// generated and persisted on the Match record before this call, so a retry
// can re-send the same id.
type ChatProvisioner interface {
	CreateRoom(ctx context.Context, requestedID string, user1ID, user2ID, matchID uint64) (string, error)
}

// ChatClient talks to the chat service's REST API.
type ChatClient struct {
	baseURL string
	http    *http.Client
}

func NewChatClient(cfg *config.Config) *ChatClient {
	return &ChatClient{
		baseURL: cfg.Chat.BaseURL,
		http:    &http.Client{Timeout: chatTimeout},
	}
}

type createRoomRequest struct {
	ChatRoomID string `json:"chatRoomId"`
	User1ID    string `json:"user1Id"`
	User2ID    string `json:"user2Id"`
	MatchID    uint64 `json:"matchId"`
	MatchType  string `json:"matchType"`
}

type createRoomResponse struct {
	ID string `json:"id"`
}

// CreateRoom asks the chat service to create a room under requestedID and
// returns the id the service actually assigned.
func (c *ChatClient) CreateRoom(ctx context.Context, requestedID string, user1ID, user2ID, matchID uint64) (string, error) {
	body, err := json.Marshal(createRoomRequest{
		ChatRoomID: requestedID,
		User1ID:    fmt.Sprintf("%d", user1ID),
		User2ID:    fmt.Sprintf("%d", user2ID),
		MatchID:    matchID,
		MatchType:  "SWIPE",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat service returned status %d", resp.StatusCode)
	}

	var out createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat service response decode failed: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("chat service returned empty room id")
	}
	return out.ID, nil
}
