package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds the settings for the hosted identity provider
type OIDCConfig struct {
	IssuerURL string
	ClientID  string
	// SkipIssuerCheck is only for providers whose discovery document issuer
	// differs from the configured URL (some self-hosted deployments).
	SkipIssuerCheck bool
}

// OIDCResolver resolves session tokens by verifying them as ID tokens issued
// by the hosted identity provider and mapping claims to an Identity.
type OIDCResolver struct {
	verifier *oidc.IDTokenVerifier
}

// sessionClaims is the claim set the provider embeds in session tokens
type sessionClaims struct {
	ProfileID      string `json:"profile_id"`
	OrganizationID string `json:"org_id"`
	Role           string `json:"role"`
}

// NewOIDCResolver discovers the provider and builds a token verifier
func NewOIDCResolver(ctx context.Context, cfg OIDCConfig) (*OIDCResolver, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:        cfg.ClientID,
		SkipIssuerCheck: cfg.SkipIssuerCheck,
	})

	return &OIDCResolver{verifier: verifier}, nil
}

// Resolve verifies the session token and maps its claims to an Identity.
//
// Verification failures (expired, bad signature, wrong audience) resolve to
// ErrNoSession: from the gate's point of view the caller simply has no
// session. Provider transport failures are classified as infrastructure
// errors so they can be logged and counted separately.
func (r *OIDCResolver) Resolve(ctx context.Context, sessionToken string) (*Identity, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, ErrNoSession
	}

	token, err := r.verifier.Verify(ctx, sessionToken)
	if err != nil {
		if isTransportError(err) {
			return nil, Infrastructure(err)
		}
		return nil, ErrNoSession
	}

	var claims sessionClaims
	if err := token.Claims(&claims); err != nil {
		return nil, ErrNoSession
	}

	if token.Subject == "" {
		// A session without a subject is malformed; never hand it to a handler.
		return nil, ErrNoSession
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrNoSession
	}

	return &Identity{
		UserID:         token.Subject,
		ProfileID:      claims.ProfileID,
		OrganizationID: claims.OrganizationID,
		Role:           role,
	}, nil
}

// isTransportError distinguishes provider-unreachable failures from token
// validation failures. Key fetches inside Verify surface as *url.Error.
func isTransportError(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr)
}
