// README: Firebase Admin SDK initialisation, token verifier and FCM client.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FirebaseToken holds the verified token data used by downstream middleware.
type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw Firebase ID token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

// firebaseVerifier is the production implementation backed by the Firebase Admin SDK.
type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseApp initialises the Admin SDK. If credentialsFile is empty,
// application-default credentials / GOOGLE_APPLICATION_CREDENTIALS are used.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	return app, nil
}

// NewFirebaseVerifier creates a TokenVerifier using the Firebase Admin SDK.
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: token.UID, Claims: token.Claims}, nil
}

// NewMessaging returns the FCM client used to push offers to driver devices.
func NewMessaging(ctx context.Context, app *firebase.App) (*messaging.Client, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Messaging: %w", err)
	}
	return client, nil
}
