// Package line adapts the LINE Messaging API SDK to the relay's event model.
package line

import (
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/skboreys/sundaycodelabs/internal/core"
)

// ParseEvents converts a verified webhook callback into core events.
// Kinds the relay has no handler for come back as core.Unrecognized.
func ParseEvents(cb *webhook.CallbackRequest) []core.Event {
	events := make([]core.Event, 0, len(cb.Events))
	for _, ev := range cb.Events {
		events = append(events, convert(cb.Destination, ev))
	}
	return events
}

func convert(destination string, ev webhook.EventInterface) core.Event {
	switch e := ev.(type) {
	case webhook.MessageEvent:
		meta := core.Meta{
			ReplyToken:     e.ReplyToken,
			Timestamp:      e.Timestamp,
			Mode:           string(e.Mode),
			WebhookEventID: e.WebhookEventId,
			Destination:    destination,
			Source:         convertSource(e.Source),
		}
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			return core.TextMessage{Meta: meta, MessageID: m.Id, Text: m.Text}
		case webhook.LocationMessageContent:
			return core.LocationMessage{
				Meta:      meta,
				MessageID: m.Id,
				Title:     m.Title,
				Address:   m.Address,
				Latitude:  m.Latitude,
				Longitude: m.Longitude,
			}
		case webhook.StickerMessageContent:
			return core.StickerMessage{
				Meta:      meta,
				MessageID: m.Id,
				PackageID: m.PackageId,
				StickerID: m.StickerId,
				Keywords:  m.Keywords,
			}
		default:
			return core.Unrecognized{Meta: meta, EventKind: fmt.Sprintf("message/%T", e.Message)}
		}
	case webhook.PostbackEvent:
		meta := core.Meta{
			ReplyToken:     e.ReplyToken,
			Timestamp:      e.Timestamp,
			Mode:           string(e.Mode),
			WebhookEventID: e.WebhookEventId,
			Destination:    destination,
			Source:         convertSource(e.Source),
		}
		var data string
		var params map[string]string
		if e.Postback != nil {
			data = e.Postback.Data
			params = e.Postback.Params
		}
		return core.Postback{Meta: meta, Data: data, Params: params}
	case webhook.FollowEvent:
		return core.Follow{Meta: core.Meta{
			ReplyToken:     e.ReplyToken,
			Timestamp:      e.Timestamp,
			Mode:           string(e.Mode),
			WebhookEventID: e.WebhookEventId,
			Destination:    destination,
			Source:         convertSource(e.Source),
		}}
	default:
		return core.Unrecognized{
			Meta:      core.Meta{Destination: destination},
			EventKind: fmt.Sprintf("%T", ev),
		}
	}
}

func convertSource(src webhook.SourceInterface) core.Source {
	switch s := src.(type) {
	case webhook.UserSource:
		return core.Source{Type: "user", UserID: s.UserId}
	case webhook.GroupSource:
		return core.Source{Type: "group", UserID: s.UserId, GroupID: s.GroupId}
	case webhook.RoomSource:
		return core.Source{Type: "room", UserID: s.UserId, RoomID: s.RoomId}
	default:
		return core.Source{}
	}
}
