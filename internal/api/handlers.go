package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skboreys/sundaycodelabs/internal/core"
	"github.com/skboreys/sundaycodelabs/internal/line"
)

// maxFulfillmentBody caps fulfillment request bodies at 50mb.
const maxFulfillmentBody = 50 << 20

var webhookRequestOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

type APIHandler struct {
	channelSecret string
	dispatcher    *core.Dispatcher
	fulfiller     *core.Fulfiller
	logger        *slog.Logger
}

func NewAPIHandler(channelSecret string, dispatcher *core.Dispatcher, fulfiller *core.Fulfiller, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		channelSecret: channelSecret,
		dispatcher:    dispatcher,
		fulfiller:     fulfiller,
		logger:        logger,
	}
}

// WebhookHandler accepts LINE webhook batches. Events are handled in the
// background; the response never waits for them.
func (h *APIHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}
		h.logger.Warn("failed to parse webhook request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.dispatcher.DispatchBatch(r.Context(), line.ParseEvents(cb))
	w.WriteHeader(http.StatusOK)
}

// FulfillmentHandler answers Dialogflow ES fulfillment webhooks.
func (h *APIHandler) FulfillmentHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFulfillmentBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req dialogflowpb.WebhookRequest
	if err := webhookRequestOptions.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := applyLegacyOriginalRequest(body, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.fulfiller.Handle(r.Context(), &req)
	if err != nil {
		h.logger.Error("fulfillment failed",
			"intent", req.GetQueryResult().GetIntent().GetDisplayName(),
			"session", req.GetSession(),
			"error", err,
		)
		http.Error(w, "Failed to fulfill intent", http.StatusInternalServerError)
		return
	}

	out, err := protojson.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode fulfillment response", "error", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

// legacyRequest is the v1 fulfillment shape, where the platform payload sits
// under originalRequest instead of originalDetectIntentRequest.
type legacyRequest struct {
	OriginalRequest *struct {
		Source  string          `json:"source"`
		Payload json.RawMessage `json:"payload"`
	} `json:"originalRequest"`
}

// applyLegacyOriginalRequest fills req.OriginalDetectIntentRequest from a v1
// originalRequest when the v2 field carries no payload.
func applyLegacyOriginalRequest(body []byte, req *dialogflowpb.WebhookRequest) error {
	if len(req.GetOriginalDetectIntentRequest().GetPayload().GetFields()) > 0 {
		return nil
	}
	var legacy legacyRequest
	if err := json.Unmarshal(body, &legacy); err != nil {
		return err
	}
	if legacy.OriginalRequest == nil || len(legacy.OriginalRequest.Payload) == 0 || string(legacy.OriginalRequest.Payload) == "null" {
		return nil
	}

	payload := &structpb.Struct{}
	if err := protojson.Unmarshal(legacy.OriginalRequest.Payload, payload); err != nil {
		return err
	}
	req.OriginalDetectIntentRequest = &dialogflowpb.OriginalDetectIntentRequest{
		Source:  legacy.OriginalRequest.Source,
		Payload: payload,
	}
	return nil
}
