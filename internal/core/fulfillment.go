package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skboreys/sundaycodelabs/internal/reply"
	"github.com/skboreys/sundaycodelabs/internal/store"
)

// RegisterDateIntent is the Dialogflow intent that completes a registration.
const RegisterDateIntent = "register - date"

var errNoUserID = errors.New("fulfillment request carries no LINE user id")

// IntentHandler fulfills one resolved intent.
type IntentHandler func(ctx context.Context, req *dialogflowpb.WebhookRequest) (*dialogflowpb.WebhookResponse, error)

// Fulfiller answers Dialogflow fulfillment callbacks.
type Fulfiller struct {
	store   store.Store
	logger  *slog.Logger
	intents map[string]IntentHandler
}

func NewFulfiller(s store.Store, logger *slog.Logger) *Fulfiller {
	f := &Fulfiller{
		store:  s,
		logger: logger,
	}
	f.intents = map[string]IntentHandler{
		RegisterDateIntent: f.Register,
	}
	return f
}

// Handle routes a callback by intent display name. Intents without a handler
// get an empty response so Dialogflow falls back to its configured replies.
func (f *Fulfiller) Handle(ctx context.Context, req *dialogflowpb.WebhookRequest) (*dialogflowpb.WebhookResponse, error) {
	intent := req.GetQueryResult().GetIntent().GetDisplayName()
	handler, ok := f.intents[intent]
	if !ok {
		f.logger.Debug("no fulfillment handler for intent", "intent", intent)
		return &dialogflowpb.WebhookResponse{}, nil
	}
	return handler(ctx, req)
}

// Register saves the captured registration and, only once the write succeeds,
// answers with the confirmation card.
func (f *Fulfiller) Register(ctx context.Context, req *dialogflowpb.WebhookRequest) (*dialogflowpb.WebhookResponse, error) {
	userID := UserIDFromPayload(req.GetOriginalDetectIntentRequest().GetPayload())
	if userID == "" {
		return nil, errNoUserID
	}

	params := req.GetQueryResult().GetParameters().GetFields()
	name := stringParam(params["name"])
	lat := stringParam(params["latitude"])
	lng := stringParam(params["longitude"])
	date := stringParam(params["selected_date"])

	reg := store.Registration{
		UID:          userID,
		Name:         name,
		Latitude:     numberParam(params["latitude"]),
		Longitude:    numberParam(params["longitude"]),
		SelectedDate: store.ParseSelectedDate(date),
	}
	if err := f.store.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	f.logger.Info("registration saved", "user_id", userID)

	payload, err := linePayload(reply.Confirmation(reply.Confirm{
		Name:         name,
		Latitude:     lat,
		Longitude:    lng,
		SelectedDate: date,
	}))
	if err != nil {
		return nil, err
	}
	return &dialogflowpb.WebhookResponse{
		FulfillmentMessages: []*dialogflowpb.Intent_Message{{
			Platform: dialogflowpb.Intent_Message_LINE,
			Message:  &dialogflowpb.Intent_Message_Payload{Payload: payload},
		}},
	}, nil
}

// UserIDFromPayload reads data.source.userId from the detect-intent payload.
// v1 originalRequest bodies are mapped onto the same field by the API layer.
func UserIDFromPayload(payload *structpb.Struct) string {
	data := payload.GetFields()["data"].GetStructValue()
	source := data.GetFields()["source"].GetStructValue()
	return source.GetFields()["userId"].GetStringValue()
}

// linePayload wraps a LINE message as a Dialogflow custom payload.
func linePayload(m messaging_api.MessageInterface) (*structpb.Struct, error) {
	raw, err := reply.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode LINE message: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode LINE message: %w", err)
	}
	payload, err := structpb.NewStruct(map[string]any{"line": msg})
	if err != nil {
		return nil, fmt.Errorf("failed to build custom payload: %w", err)
	}
	return payload, nil
}

// stringParam renders a parameter the way it is echoed back to the user.
// Composite @sys.person values carry the text under "name".
func stringParam(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return formatFloat(k.NumberValue)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	case *structpb.Value_StructValue:
		return k.StructValue.GetFields()["name"].GetStringValue()
	default:
		return ""
	}
}

func numberParam(v *structpb.Value) float64 {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		n, err := strconv.ParseFloat(k.StringValue, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
