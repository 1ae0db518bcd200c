// Package auth verifies bearer tokens against a JWKS endpoint.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// JWTVerifier checks tokens against a cached key set.
// The set is fetched again at most once per refresh interval.
type JWTVerifier struct {
	mu sync.RWMutex

	cfg config.AuthConfig

	keys      jwk.Set
	fetchedAt time.Time
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier fetches the key set once so a bad JWKS URL fails at startup.
func NewJWTVerifier(ctx context.Context, cfg config.AuthConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{cfg: cfg}
	if _, err := v.keySet(ctx); err != nil {
		return nil, fmt.Errorf("initial JWKS fetch failed: %w", err)
	}
	return v, nil
}

func (v *JWTVerifier) fresh() (jwk.Set, bool) {
	if v.keys != nil && time.Since(v.fetchedAt) < v.cfg.MinInterval {
		return v.keys, true
	}
	return nil, false
}

// keySet returns the cached set, refetching it when stale.
// A failed refetch falls back to the previous set.
func (v *JWTVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.RLock()
	set, ok := v.fresh()
	v.mu.RUnlock()
	if ok {
		return set, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if set, ok := v.fresh(); ok {
		return set, nil
	}
	set, err := jwk.Fetch(ctx, v.cfg.JwksURL)
	if err != nil {
		if v.keys != nil {
			return v.keys, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", v.cfg.JwksURL, err)
	}
	v.keys = set
	v.fetchedAt = time.Now()
	return set, nil
}

// Verify parses the token and checks signature, expiry, issuer and the azp claim.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyset for verification: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithClaimValue("azp", v.cfg.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return token, nil
}
