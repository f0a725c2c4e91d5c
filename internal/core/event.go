package core

// Source identifies where a LINE event came from.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Meta is the platform metadata needed to rebuild a reply target for an event.
type Meta struct {
	ReplyToken     string
	Timestamp      int64 // epoch ms
	Mode           string
	WebhookEventID string
	Destination    string
	Source         Source
}

func (m Meta) UserID() string {
	return m.Source.UserID
}

// Event is one inbound chat event. The set of variants is closed; anything
// the relay does not handle arrives as Unrecognized.
type Event interface {
	Metadata() Meta
	Kind() string
	isEvent()
}

type TextMessage struct {
	Meta
	MessageID string
	Text      string
}

type LocationMessage struct {
	Meta
	MessageID string
	Title     string
	Address   string
	Latitude  float64
	Longitude float64
}

type StickerMessage struct {
	Meta
	MessageID string
	PackageID string
	StickerID string
	Keywords  []string
}

type Postback struct {
	Meta
	Data   string
	Params map[string]string
}

type Follow struct {
	Meta
}

// Unrecognized carries an event or message subtype with no handler.
type Unrecognized struct {
	Meta
	EventKind string
}

func (e TextMessage) Metadata() Meta     { return e.Meta }
func (e LocationMessage) Metadata() Meta { return e.Meta }
func (e StickerMessage) Metadata() Meta  { return e.Meta }
func (e Postback) Metadata() Meta        { return e.Meta }
func (e Follow) Metadata() Meta          { return e.Meta }
func (e Unrecognized) Metadata() Meta    { return e.Meta }

func (TextMessage) Kind() string     { return "message/text" }
func (LocationMessage) Kind() string { return "message/location" }
func (StickerMessage) Kind() string  { return "message/sticker" }
func (Postback) Kind() string        { return "postback" }
func (Follow) Kind() string          { return "follow" }
func (e Unrecognized) Kind() string  { return e.EventKind }

func (TextMessage) isEvent()     {}
func (LocationMessage) isEvent() {}
func (StickerMessage) isEvent()  {}
func (Postback) isEvent()        {}
func (Follow) isEvent()          {}
func (Unrecognized) isEvent()    {}
