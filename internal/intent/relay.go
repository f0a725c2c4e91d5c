// Package intent forwards canonical text queries to Dialogflow.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/skboreys/sundaycodelabs/internal/auth"
	"github.com/skboreys/sundaycodelabs/internal/core"
)

// Relay replays queries to the Dialogflow LINE integration as signed
// single-event LINE webhooks, so Dialogflow replies to the user itself.
type Relay struct {
	endpoint      string
	channelSecret string
	client        *http.Client
}

func NewRelay(endpoint, channelSecret string, client *http.Client) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{
		endpoint:      endpoint,
		channelSecret: channelSecret,
		client:        client,
	}
}

type webhookBody struct {
	Destination string      `json:"destination"`
	Events      []textEvent `json:"events"`
}

type textEvent struct {
	Type           string      `json:"type"`
	ReplyToken     string      `json:"replyToken,omitempty"`
	Timestamp      int64       `json:"timestamp"`
	Mode           string      `json:"mode"`
	WebhookEventID string      `json:"webhookEventId,omitempty"`
	Source         core.Source `json:"source"`
	Message        textMessage `json:"message"`
}

type textMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

func buildBody(q core.Query) webhookBody {
	mode := q.Meta.Mode
	if mode == "" {
		mode = "active"
	}
	return webhookBody{
		Destination: q.Meta.Destination,
		Events: []textEvent{{
			Type:           "message",
			ReplyToken:     q.Meta.ReplyToken,
			Timestamp:      q.Meta.Timestamp,
			Mode:           mode,
			WebhookEventID: q.Meta.WebhookEventID,
			Source:         q.Meta.Source,
			Message: textMessage{
				Type: "text",
				ID:   q.MessageID,
				Text: q.Text,
			},
		}},
	}
}

func (r *Relay) Detect(ctx context.Context, q core.Query) error {
	body, err := json.Marshal(buildBody(q))
	if err != nil {
		return fmt.Errorf("failed to encode relay body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.SignatureHeader, auth.Sign(r.channelSecret, body))

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: relay to dialogflow: %w", core.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: dialogflow integration returned %s", core.ErrTransport, resp.Status)
	}
	return nil
}
