// Package slack wraps the Slack Web API for the slack connector.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// Client wraps the Slack Web API for a single authenticated workspace.
// The channel name cache lives for one request only; a new Client (and so an
// empty cache) is built for every inbound session.
type Client struct {
	api          *slackapi.Client
	channelCache map[string]string
}

// NewClient creates a Slack client from a bot or user token.
func NewClient(token string, opts ...slackapi.Option) *Client {
	return &Client{
		api:          slackapi.New(token, opts...),
		channelCache: make(map[string]string),
	}
}

// Channel is a flattened view of a Slack conversation.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsPrivate  bool   `json:"is_private"`
	NumMembers int    `json:"num_members"`
}

// ListChannels returns the channels visible to the token, priming the
// name-to-id cache as a side effect.
func (c *Client) ListChannels(ctx context.Context, limit int) ([]Channel, error) {
	if limit <= 0 {
		limit = 100
	}
	params := &slackapi.GetConversationsParameters{
		Limit: limit,
		Types: []string{"public_channel", "private_channel"},
	}

	var channels []Channel
	for {
		page, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list channels: %w", err)
		}
		for _, ch := range page {
			c.channelCache[ch.Name] = ch.ID
			channels = append(channels, Channel{
				ID:         ch.ID,
				Name:       ch.Name,
				IsPrivate:  ch.IsPrivate,
				NumMembers: ch.NumMembers,
			})
		}
		if cursor == "" || len(channels) >= limit {
			break
		}
		params.Cursor = cursor
	}
	return channels, nil
}

// ResolveChannel maps a channel name to its id, using the request-scoped
// cache before hitting the API. Ids (C..., G..., D...) pass through.
func (c *Client) ResolveChannel(ctx context.Context, nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", fmt.Errorf("channel is required")
	}
	switch nameOrID[0] {
	case 'C', 'G', 'D':
		if len(nameOrID) > 8 {
			return nameOrID, nil
		}
	}
	if id, ok := c.channelCache[nameOrID]; ok {
		return id, nil
	}
	if _, err := c.ListChannels(ctx, 1000); err != nil {
		return "", err
	}
	if id, ok := c.channelCache[nameOrID]; ok {
		return id, nil
	}
	return "", fmt.Errorf("channel %q not found", nameOrID)
}

// PostMessage sends a text message to a channel (by name or id) and returns
// the message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text string) (string, error) {
	channelID, err := c.ResolveChannel(ctx, channel)
	if err != nil {
		return "", err
	}
	_, ts, err := c.api.PostMessageContext(ctx, channelID, slackapi.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	return ts, nil
}

// Message is a flattened channel history entry.
type Message struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
}

// GetChannelHistory returns recent messages of a channel.
func (c *Client) GetChannelHistory(ctx context.Context, channel string, limit int) ([]Message, error) {
	channelID, err := c.ResolveChannel(ctx, channel)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	res, err := c.api.GetConversationHistoryContext(ctx, &slackapi.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get channel history: %w", err)
	}
	messages := make([]Message, 0, len(res.Messages))
	for _, m := range res.Messages {
		messages = append(messages, Message{User: m.User, Text: m.Text, Timestamp: m.Timestamp})
	}
	return messages, nil
}
