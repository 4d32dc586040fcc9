// Package firestore stores events, invitations and profiles in Cloud Firestore and serves
// live subscriptions from query snapshot listeners.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eventscheduler/internal/domain"
)

// Collection names.
const (
	eventsCollection      = "events"
	invitationsCollection = "invitations"
	usersCollection       = "users"
	credentialsCollection = "credentials"
)

// NewClient initializes a Firestore client. An empty credentialsFile uses Application Default Credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// storeError maps a Firestore/gRPC error to the domain taxonomy.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return domain.ErrNotFound
	}
	return domain.NewStoreError(op, err)
}

// watchStopped reports whether a snapshot iterator error only means the listener was shut down.
func watchStopped(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	code := status.Code(err)
	return code == codes.Canceled || code == codes.DeadlineExceeded
}
