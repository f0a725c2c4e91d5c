// Package reply builds the LINE messages the relay sends to users.
package reply

import (
	"encoding/json"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const (
	altText = "Flex Message"

	welcomeText   = "ยินดีต้อนรับ กรุณาลงทะเบียน"
	registerLabel = "ลงทะเบียน"
	laterLabel    = "ไว้ทีหลัง"

	thanksText  = "ขอบคุณสำหรับการลงทะเบียน"
	summaryText = "ข้อมูลของคุณคือ"
	nameLabel   = "ชื่อ"
	placeLabel  = "ตำแหน่ง"
	dateLabel   = "วันที"

	labelColor = "#aaaaaa"
	valueColor = "#666666"

	// rowFlex is LINE's default share for children of horizontal and baseline
	// boxes. The SDK always encodes flex, so it has to be set explicitly.
	rowFlex = 1
)

// Confirm holds the captured registration fields as they are shown to the user.
type Confirm struct {
	Name         string
	Latitude     string
	Longitude    string
	SelectedDate string
}

// Text is a plain text message.
func Text(s string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{Text: s}
}

// Onboarding is pushed to a user who follows the account.
func Onboarding() *messaging_api.FlexMessage {
	return &messaging_api.FlexMessage{
		AltText: altText,
		Contents: &messaging_api.FlexBubble{
			Body: &messaging_api.FlexBox{
				Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
				Contents: []messaging_api.FlexComponentInterface{
					&messaging_api.FlexText{
						Text:   welcomeText,
						Weight: messaging_api.FlexTextWEIGHT_REGULAR,
						Size:   "md",
					},
				},
			},
			Footer: &messaging_api.FlexBox{
				Layout:  messaging_api.FlexBoxLAYOUT_HORIZONTAL,
				Spacing: "sm",
				Contents: []messaging_api.FlexComponentInterface{
					linkButton(registerLabel),
					linkButton(laterLabel),
					spacer{Size: "sm"},
				},
			},
		},
	}
}

// Confirmation renders the saved registration: name, position, then date.
func Confirmation(c Confirm) *messaging_api.FlexMessage {
	return &messaging_api.FlexMessage{
		AltText: altText,
		Contents: &messaging_api.FlexBubble{
			Body: &messaging_api.FlexBox{
				Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
				Contents: []messaging_api.FlexComponentInterface{
					&messaging_api.FlexText{
						Text:   thanksText,
						Weight: messaging_api.FlexTextWEIGHT_BOLD,
						Size:   "xl",
					},
					&messaging_api.FlexBox{
						Layout:  messaging_api.FlexBoxLAYOUT_VERTICAL,
						Margin:  "lg",
						Spacing: "sm",
						Contents: []messaging_api.FlexComponentInterface{
							&messaging_api.FlexText{Text: summaryText},
							row(nameLabel, c.Name),
							row(placeLabel, c.Latitude+", "+c.Longitude),
							row(dateLabel, c.SelectedDate),
						},
					},
				},
			},
		},
	}
}

// Marshal encodes a message the way the Messaging API expects it, type tags included.
func Marshal(m messaging_api.MessageInterface) ([]byte, error) {
	return json.Marshal(m)
}

func linkButton(label string) *messaging_api.FlexButton {
	return &messaging_api.FlexButton{
		Flex:   rowFlex,
		Style:  messaging_api.FlexButtonSTYLE_LINK,
		Height: messaging_api.FlexButtonHEIGHT_SM,
		Action: &messaging_api.MessageAction{
			Label: label,
			Text:  label,
		},
	}
}

func row(label, value string) *messaging_api.FlexBox {
	return &messaging_api.FlexBox{
		Layout:  messaging_api.FlexBoxLAYOUT_BASELINE,
		Spacing: "sm",
		Contents: []messaging_api.FlexComponentInterface{
			&messaging_api.FlexText{
				Flex:  rowFlex,
				Text:  label,
				Color: labelColor,
				Size:  "sm",
			},
			&messaging_api.FlexText{
				Flex:  rowFlex,
				Text:  value,
				Wrap:  true,
				Color: valueColor,
				Size:  "sm",
			},
		},
	}
}

// spacer is the legacy flex spacer; the SDK has no model for it.
type spacer struct {
	Size string `json:"size"`
}

func (spacer) GetType() string { return "spacer" }

func (s spacer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Size string `json:"size"`
	}{Type: s.GetType(), Size: s.Size})
}
