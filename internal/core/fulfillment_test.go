package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skboreys/sundaycodelabs/internal/store"
)

type fakeStore struct {
	saved []store.Registration
	err   error
}

func (f *fakeStore) Save(ctx context.Context, reg store.Registration) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, reg)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func registerRequest(t *testing.T, intent, userID string) *dialogflowpb.WebhookRequest {
	t.Helper()
	return &dialogflowpb.WebhookRequest{
		QueryResult: &dialogflowpb.QueryResult{
			Intent: &dialogflowpb.Intent{DisplayName: intent},
			Parameters: mustStruct(t, map[string]any{
				"name":          map[string]any{"name": "Somchai"},
				"latitude":      13.7563,
				"longitude":     "100.5018",
				"selected_date": "2021-08-15T12:00:00+07:00",
			}),
		},
		OriginalDetectIntentRequest: &dialogflowpb.OriginalDetectIntentRequest{
			Source: "line",
			Payload: mustStruct(t, map[string]any{
				"data": map[string]any{
					"source": map[string]any{"type": "user", "userId": userID},
				},
			}),
		},
	}
}

func TestRegisterPersistsThenReplies(t *testing.T) {
	st := &fakeStore{}
	f := NewFulfiller(st, discardLogger())

	resp, err := f.Handle(context.Background(), registerRequest(t, RegisterDateIntent, "U1"))
	if err != nil {
		t.Fatal(err)
	}

	if len(st.saved) != 1 {
		t.Fatalf("expected one saved record, got %d", len(st.saved))
	}
	reg := st.saved[0]
	if reg.UID != "U1" || reg.Name != "Somchai" {
		t.Errorf("unexpected record %+v", reg)
	}
	if reg.Latitude != 13.7563 || reg.Longitude != 100.5018 {
		t.Errorf("unexpected coordinates %v, %v", reg.Latitude, reg.Longitude)
	}
	if want := time.Date(2021, 8, 15, 5, 0, 0, 0, time.UTC); !reg.SelectedDate.Equal(want) {
		t.Errorf("selected date = %v, want %v", reg.SelectedDate, want)
	}

	msgs := resp.GetFulfillmentMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected one fulfillment message, got %d", len(msgs))
	}
	if msgs[0].GetPlatform() != dialogflowpb.Intent_Message_LINE {
		t.Errorf("platform = %v, want LINE", msgs[0].GetPlatform())
	}
	line := msgs[0].GetPayload().GetFields()["line"].GetStructValue()
	if line.GetFields()["type"].GetStringValue() != "flex" {
		t.Errorf("expected a flex payload, got %v", line)
	}
}

func TestRegisterPersistenceFailureSuppressesReply(t *testing.T) {
	st := &fakeStore{err: errors.New("firestore unavailable")}
	f := NewFulfiller(st, discardLogger())

	resp, err := f.Handle(context.Background(), registerRequest(t, RegisterDateIntent, "U1"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if resp != nil {
		t.Errorf("no reply may be produced after a failed write, got %v", resp)
	}
}

func TestRegisterRequiresUserID(t *testing.T) {
	st := &fakeStore{}
	f := NewFulfiller(st, discardLogger())

	if _, err := f.Handle(context.Background(), registerRequest(t, RegisterDateIntent, "")); err == nil {
		t.Fatal("expected an error for a request without user id")
	}
	if len(st.saved) != 0 {
		t.Errorf("nothing should be saved without a user id")
	}
}

func TestHandleUnregisteredIntent(t *testing.T) {
	st := &fakeStore{}
	f := NewFulfiller(st, discardLogger())

	resp, err := f.Handle(context.Background(), registerRequest(t, "Default Welcome Intent", "U1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.GetFulfillmentMessages()) != 0 {
		t.Errorf("expected empty response, got %v", resp)
	}
	if len(st.saved) != 0 {
		t.Errorf("unregistered intents must not persist")
	}
}

func TestParams(t *testing.T) {
	tests := []struct {
		in  any
		str string
		num float64
	}{
		{"13.5", "13.5", 13.5},
		{13.5, "13.5", 13.5},
		{100.0, "100", 100},
		{"abc", "abc", 0},
		{map[string]any{"name": "Ann"}, "Ann", 0},
	}
	for _, tc := range tests {
		v, err := structpb.NewValue(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := stringParam(v); got != tc.str {
			t.Errorf("stringParam(%v) = %q, want %q", tc.in, got, tc.str)
		}
		if got := numberParam(v); got != tc.num {
			t.Errorf("numberParam(%v) = %v, want %v", tc.in, got, tc.num)
		}
	}
	if stringParam(nil) != "" || numberParam(nil) != 0 {
		t.Error("missing parameters should be empty")
	}
}
