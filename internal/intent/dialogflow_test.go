package intent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skboreys/sundaycodelabs/internal/core"
)

type fakeSessions struct {
	req  *dialogflowpb.DetectIntentRequest
	resp *dialogflowpb.DetectIntentResponse
	err  error
}

func (f *fakeSessions) DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeSessions) Close() error { return nil }

type recordingPusher struct {
	userID   string
	messages []messaging_api.MessageInterface
}

func (p *recordingPusher) Push(userID string, messages ...messaging_api.MessageInterface) error {
	p.userID = userID
	p.messages = append(p.messages, messages...)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDialogflowDetectBuildsSessionRequest(t *testing.T) {
	sessions := &fakeSessions{resp: &dialogflowpb.DetectIntentResponse{QueryResult: &dialogflowpb.QueryResult{}}}
	pusher := &recordingPusher{}
	d := newDialogflowDetector(sessions, "proj", "", pusher, quietLogger())

	q := core.Query{
		Text: "EMOTION: happy",
		Meta: core.Meta{ReplyToken: "r1", Source: core.Source{Type: "user", UserID: "U1"}},
	}
	if err := d.Detect(context.Background(), q); err != nil {
		t.Fatal(err)
	}

	req := sessions.req
	if req.GetSession() != "projects/proj/agent/sessions/U1" {
		t.Errorf("session = %q", req.GetSession())
	}
	if req.GetQueryInput().GetText().GetText() != "EMOTION: happy" {
		t.Errorf("text = %q", req.GetQueryInput().GetText().GetText())
	}
	if req.GetQueryInput().GetText().GetLanguageCode() != "th" {
		t.Errorf("language = %q, want th", req.GetQueryInput().GetText().GetLanguageCode())
	}
	if got := core.UserIDFromPayload(req.GetQueryParams().GetPayload()); got != "U1" {
		t.Errorf("payload user id = %q, want U1", got)
	}
	if len(pusher.messages) != 0 {
		t.Errorf("empty result should not push, got %d messages", len(pusher.messages))
	}
}

func TestDialogflowDetectPushesReplies(t *testing.T) {
	flex, err := structpb.NewStruct(map[string]any{
		"line": map[string]any{"type": "flex", "altText": "Flex Message"},
	})
	if err != nil {
		t.Fatal(err)
	}
	sessions := &fakeSessions{resp: &dialogflowpb.DetectIntentResponse{
		QueryResult: &dialogflowpb.QueryResult{
			FulfillmentMessages: []*dialogflowpb.Intent_Message{
				{Message: &dialogflowpb.Intent_Message_Text_{Text: &dialogflowpb.Intent_Message_Text{Text: []string{"กรุณาระบุชื่อ"}}}},
				{Platform: dialogflowpb.Intent_Message_LINE, Message: &dialogflowpb.Intent_Message_Payload{Payload: flex}},
			},
		},
	}}
	pusher := &recordingPusher{}
	d := newDialogflowDetector(sessions, "proj", "th", pusher, quietLogger())

	q := core.Query{Text: "ลงทะเบียน", Meta: core.Meta{Source: core.Source{Type: "user", UserID: "U1"}}}
	if err := d.Detect(context.Background(), q); err != nil {
		t.Fatal(err)
	}

	if pusher.userID != "U1" || len(pusher.messages) != 2 {
		t.Fatalf("unexpected push to %q: %d messages", pusher.userID, len(pusher.messages))
	}
	if text, ok := pusher.messages[0].(*messaging_api.TextMessage); !ok || text.Text != "กรุณาระบุชื่อ" {
		t.Errorf("first message = %#v, want text reply", pusher.messages[0])
	}
	raw, err := json.Marshal(pusher.messages[1])
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != "flex" || decoded["altText"] != "Flex Message" {
		t.Errorf("custom payload not passed through: %s", raw)
	}
}

func TestDialogflowFallsBackToFulfillmentText(t *testing.T) {
	sessions := &fakeSessions{resp: &dialogflowpb.DetectIntentResponse{
		QueryResult: &dialogflowpb.QueryResult{FulfillmentText: "สวัสดี"},
	}}
	pusher := &recordingPusher{}
	d := newDialogflowDetector(sessions, "proj", "th", pusher, quietLogger())

	if err := d.Detect(context.Background(), core.Query{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if len(pusher.messages) != 1 {
		t.Fatalf("expected fulfillment text to be pushed, got %d", len(pusher.messages))
	}
}

func TestDialogflowDetectError(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("unavailable")}
	d := newDialogflowDetector(sessions, "proj", "th", &recordingPusher{}, quietLogger())

	if err := d.Detect(context.Background(), core.Query{Text: "hi"}); !errors.Is(err, core.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
