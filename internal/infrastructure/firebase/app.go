package firebase

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/nerrad567/doorbell-core/internal/infrastructure/config"
)

// ErrNoDatabaseURL is returned by Database when no Realtime Database URL is configured.
var ErrNoDatabaseURL = errors.New("firebase: database url not configured")

// App wraps an initialised Firebase app.
type App struct {
	app         *firebase.App
	databaseURL string
}

// New initialises the Firebase app for projectID.
//
// Parameters:
//   - ctx: Context for credential loading
//   - projectID: Firebase project the app is bound to
//   - cfg: Credentials file and Realtime Database URL; an empty
//     CredentialsFile falls back to Application Default Credentials
//
// Returns:
//   - *App: Initialised app; clients are created with Database and Messaging
//   - error: If the Firebase SDK rejects the configuration
func New(ctx context.Context, projectID string, cfg config.FirebaseConfig) (*App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   projectID,
		DatabaseURL: cfg.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase app: %w", err)
	}
	return &App{app: app, databaseURL: cfg.DatabaseURL}, nil
}

// Database returns a Realtime Database client.
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	if a.databaseURL == "" {
		return nil, ErrNoDatabaseURL
	}
	client, err := a.app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}
	return client, nil
}

// Messaging returns a Cloud Messaging client.
func (a *App) Messaging(ctx context.Context) (*messaging.Client, error) {
	client, err := a.app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}
	return client, nil
}
