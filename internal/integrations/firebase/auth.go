// Package firebase verifies Firebase Authentication ID tokens.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/Dan9191/condo-service/internal/models"
	"google.golang.org/api/option"
)

// Verifier turns ID tokens into principals using the custom claims role and
// tenants
type Verifier struct {
	client *auth.Client
}

// NewVerifier initializes a Firebase app and returns an auth client
func NewVerifier(ctx context.Context, projectID, credentialsFile string) (*Verifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (*models.Principal, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid ID token: %w", err)
	}
	return PrincipalFromClaims(token.UID, token.Claims), nil
}

// PrincipalFromClaims reads email, role and tenants from decoded token claims
func PrincipalFromClaims(uid string, claims map[string]any) *models.Principal {
	p := &models.Principal{UserID: uid, Role: models.RoleOwner}
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		p.Role = models.Role(role)
	}
	if tenants, ok := claims["tenants"].([]any); ok {
		for _, t := range tenants {
			if id, ok := t.(string); ok {
				p.Tenants = append(p.Tenants, id)
			}
		}
	}
	return p
}
