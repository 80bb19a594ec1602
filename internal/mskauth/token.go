// Package mskauth supplies SASL/OAUTHBEARER credentials for Amazon MSK
// clusters that use IAM access control.
//
// The only thing a Kafka client needs from this package is a TokenProvider.
// Every call to Token asks the signer for a fresh token; caching and expiry
// are left to the signer and to the client library, which decide when to
// re-authenticate.
package mskauth

import (
	"context"
	"fmt"

	"github.com/aws/aws-msk-iam-sasl-signer-go/signer"
)

// TokenProvider returns a bearer token for the next SASL handshake.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a plain function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same token. Useful against local brokers
// configured with unsecured OAUTHBEARER.
func StaticToken(token string) TokenProvider {
	return TokenProviderFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// IAMTokenProvider signs MSK IAM auth tokens for one region using the
// default AWS credential chain.
type IAMTokenProvider struct {
	region string
}

// make sure it implements TokenProvider
var _ TokenProvider = (*IAMTokenProvider)(nil)

func NewIAMTokenProvider(region string) *IAMTokenProvider {
	return &IAMTokenProvider{region: region}
}

func (p *IAMTokenProvider) Region() string {
	return p.region
}

func (p *IAMTokenProvider) Token(ctx context.Context) (string, error) {
	token, _, err := signer.GenerateAuthToken(ctx, p.region)
	if err != nil {
		return "", fmt.Errorf("generating MSK IAM token for %s: %w", p.region, err)
	}
	return token, nil
}
