package reply

import "encoding/json"

// Raw is a LINE message that is already JSON, such as a Dialogflow custom payload.
type Raw json.RawMessage

func (m Raw) GetType() string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(m), &head); err != nil {
		return ""
	}
	return head.Type
}

func (m Raw) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return []byte(m), nil
}
