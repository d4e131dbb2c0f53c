// Package firebase owns the process-wide Firebase backend clients.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Clients bundles the identity, document store and push delivery backends.
// It is created at most once per process; every request shares the same handles.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Messaging *messaging.Client
}

var (
	initOnce sync.Once
	clients  *Clients
	initErr  error
)

// Init initializes the shared clients from the service account credential.
// Repeat calls are no-ops and return the memoized result, including a
// memoized failure.
func Init(ctx context.Context, serviceAccountJSON string) (*Clients, error) {
	initOnce.Do(func() {
		clients, initErr = connect(ctx, serviceAccountJSON)
		if initErr == nil {
			log.Println("✅ Firebase backends initialized")
		}
	})
	return clients, initErr
}

func connect(ctx context.Context, serviceAccountJSON string) (*Clients, error) {
	if serviceAccountJSON == "" {
		return nil, errors.New("FIREBASE_SERVICE_ACCOUNT missing")
	}

	opt := option.WithCredentialsJSON([]byte(serviceAccountJSON))
	app, err := fb.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &Clients{
		Auth:      authClient,
		Firestore: fsClient,
		Messaging: msgClient,
	}, nil
}
