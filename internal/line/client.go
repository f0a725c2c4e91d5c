package line

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/skboreys/sundaycodelabs/internal/core"
)

// Client pushes messages through the Messaging API.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

func NewClient(channelAccessToken string, httpClient *http.Client) (*Client, error) {
	opts := []messaging_api.MessagingApiAPIOption{}
	if httpClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(httpClient))
	}
	api, err := messaging_api.NewMessagingApiAPI(channelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging api client: %w", err)
	}
	return &Client{api: api}, nil
}

// Push sends messages with notifications disabled. Each call gets its own
// retry key so LINE can deduplicate a resent request.
func (c *Client) Push(userID string, messages ...messaging_api.MessageInterface) error {
	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:                   userID,
		Messages:             messages,
		NotificationDisabled: true,
	}, uuid.NewString())
	if err != nil {
		return fmt.Errorf("%w: push to %s: %w", core.ErrTransport, userID, err)
	}
	return nil
}
