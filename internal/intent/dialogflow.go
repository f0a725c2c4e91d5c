package intent

import (
	"context"
	"fmt"
	"log/slog"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skboreys/sundaycodelabs/internal/core"
	"github.com/skboreys/sundaycodelabs/internal/reply"
)

const defaultLanguage = "th"

type sessionsClient interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error)
	Close() error
}

// DialogflowDetector calls DetectIntent directly and pushes the agent's
// answer to the user, since no LINE integration sits in between.
type DialogflowDetector struct {
	sessions  sessionsClient
	projectID string
	language  string
	pusher    core.Pusher
	logger    *slog.Logger
}

func NewDialogflowDetector(ctx context.Context, projectID, language string, pusher core.Pusher, logger *slog.Logger, opts ...option.ClientOption) (*DialogflowDetector, error) {
	client, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogflow sessions client: %w", err)
	}
	return newDialogflowDetector(client, projectID, language, pusher, logger), nil
}

func newDialogflowDetector(sessions sessionsClient, projectID, language string, pusher core.Pusher, logger *slog.Logger) *DialogflowDetector {
	if language == "" {
		language = defaultLanguage
	}
	return &DialogflowDetector{
		sessions:  sessions,
		projectID: projectID,
		language:  language,
		pusher:    pusher,
		logger:    logger,
	}
}

func (d *DialogflowDetector) Close() error {
	return d.sessions.Close()
}

func (d *DialogflowDetector) sessionPath(userID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", d.projectID, userID)
}

func (d *DialogflowDetector) Detect(ctx context.Context, q core.Query) error {
	payload, err := queryPayload(q)
	if err != nil {
		return err
	}

	resp, err := d.sessions.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: d.sessionPath(q.UserID()),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{Text: q.Text, LanguageCode: d.language},
			},
		},
		QueryParams: &dialogflowpb.QueryParameters{Payload: payload},
	})
	if err != nil {
		return fmt.Errorf("%w: detect intent: %w", core.ErrTransport, err)
	}

	result := resp.GetQueryResult()
	d.logger.Debug("intent detected",
		"user_id", q.UserID(),
		"intent", result.GetIntent().GetDisplayName(),
		"confidence", result.GetIntentDetectionConfidence(),
	)

	messages := replyMessages(result)
	if len(messages) == 0 {
		return nil
	}
	if err := d.pusher.Push(q.UserID(), messages...); err != nil {
		d.logger.Warn("dialogflow reply push failed", "user_id", q.UserID(), "error", err)
	}
	return nil
}

// queryPayload mirrors what the LINE integration sends, so fulfillment finds
// the user at data.source.userId either way.
func queryPayload(q core.Query) (*structpb.Struct, error) {
	source := map[string]any{"type": q.Meta.Source.Type, "userId": q.Meta.Source.UserID}
	if q.Meta.Source.GroupID != "" {
		source["groupId"] = q.Meta.Source.GroupID
	}
	if q.Meta.Source.RoomID != "" {
		source["roomId"] = q.Meta.Source.RoomID
	}
	payload, err := structpb.NewStruct(map[string]any{
		"source": "line",
		"data": map[string]any{
			"replyToken": q.Meta.ReplyToken,
			"timestamp":  float64(q.Meta.Timestamp),
			"source":     source,
			"message":    map[string]any{"type": "text", "text": q.Text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build query payload: %w", err)
	}
	return payload, nil
}

// replyMessages keeps text replies and LINE custom payloads; other platforms are skipped.
func replyMessages(result *dialogflowpb.QueryResult) []messaging_api.MessageInterface {
	var out []messaging_api.MessageInterface
	for _, m := range result.GetFulfillmentMessages() {
		switch {
		case m.GetPayload() != nil:
			line, ok := m.GetPayload().GetFields()["line"]
			if !ok {
				continue
			}
			raw, err := protojson.Marshal(line)
			if err != nil {
				continue
			}
			out = append(out, reply.Raw(raw))
		case m.GetText() != nil:
			for _, t := range m.GetText().GetText() {
				if t != "" {
					out = append(out, reply.Text(t))
				}
			}
		}
	}
	if len(out) == 0 && result.GetFulfillmentText() != "" {
		out = append(out, reply.Text(result.GetFulfillmentText()))
	}
	return out
}
