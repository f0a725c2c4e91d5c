package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// FirestoreStore writes registrations to the member collection, one document per user.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// Save replaces the whole document; Set without merge options never merges fields.
func (s *FirestoreStore) Save(ctx context.Context, reg Registration) error {
	_, err := s.client.Collection(MemberCollection).Doc(reg.UID).Set(ctx, reg.Document())
	if err != nil {
		return fmt.Errorf("failed to set member document %s: %w", reg.UID, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
