// README: Firebase app wiring: ID-token verification and FCM messaging.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"uride/internal/identity"
	"uride/internal/types"
)

type Firebase struct {
	app *firebase.App
}

func NewFirebase(ctx context.Context, projectID, credentialsFile string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return &Firebase{app: app}, nil
}

func (f *Firebase) Messaging(ctx context.Context) (*messaging.Client, error) {
	client, err := f.app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return client, nil
}

// ActorVerifier resolves Firebase ID tokens to actors. The role comes from
// a custom claim set at signup; tokens without one default to rider.
type ActorVerifier struct {
	auth *auth.Client
}

func (f *Firebase) ActorVerifier(ctx context.Context) (*ActorVerifier, error) {
	client, err := f.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &ActorVerifier{auth: client}, nil
}

func (v *ActorVerifier) VerifyToken(ctx context.Context, raw string) (identity.Actor, error) {
	token, err := v.auth.VerifyIDToken(ctx, raw)
	if err != nil {
		return identity.Actor{}, identity.ErrNotAuthenticated
	}
	role := identity.RoleRider
	if claim, ok := token.Claims["role"].(string); ok && claim == string(identity.RoleDriver) {
		role = identity.RoleDriver
	}
	return identity.Actor{ID: types.ID(token.UID), Role: role}, nil
}
