package core

import (
	"fmt"
	"strconv"
	"strings"
)

const stickerNoticeLabel = "ความรู้สึกคือ: "

// Query is a canonical text query plus the reply context of the event it came from.
type Query struct {
	Text string
	Meta Meta
	// MessageID is the originating LINE message id, empty for postbacks.
	MessageID string
}

func (q Query) UserID() string {
	return q.Meta.UserID()
}

// Normalize turns an event into the text query sent to intent detection.
// Follow and unrecognized events have no query.
func Normalize(ev Event) (Query, error) {
	switch e := ev.(type) {
	case TextMessage:
		return Query{Text: e.Text, Meta: e.Meta, MessageID: e.MessageID}, nil
	case LocationMessage:
		text := fmt.Sprintf("LAT : %s, LNG : %s", formatFloat(e.Latitude), formatFloat(e.Longitude))
		return Query{Text: text, Meta: e.Meta, MessageID: e.MessageID}, nil
	case StickerMessage:
		return Query{Text: "EMOTION: " + joinKeywords(e.Keywords), Meta: e.Meta, MessageID: e.MessageID}, nil
	case Postback:
		return Query{Text: "DATE: " + e.Params["date"], Meta: e.Meta}, nil
	default:
		return Query{}, fmt.Errorf("%w: no text query for %s", ErrUnrecognizedEvent, ev.Kind())
	}
}

// StickerNotice is the text pushed back to the user when a sticker arrives.
func StickerNotice(keywords []string) string {
	return stickerNoticeLabel + joinKeywords(keywords)
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}

// formatFloat renders the shortest decimal that round-trips, e.g. 13.7563 or 100.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
