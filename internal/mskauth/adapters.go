package mskauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	kafkasasl "github.com/segmentio/kafka-go/sasl"
	franzsasl "github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/oauth"
)

// FranzMechanism returns a franz-go OAUTHBEARER mechanism backed by tp.
func FranzMechanism(tp TokenProvider) franzsasl.Mechanism {
	return oauth.Oauth(func(ctx context.Context) (oauth.Auth, error) {
		token, err := tp.Token(ctx)
		if err != nil {
			return oauth.Auth{}, err
		}
		return oauth.Auth{Token: token}, nil
	})
}

// SaramaTokenProvider adapts a TokenProvider to sarama's
// AccessTokenProvider. Sarama does not pass a context, so the token request
// runs under context.Background.
type SaramaTokenProvider struct {
	Provider TokenProvider
}

// make sure it implements sarama.AccessTokenProvider
var _ sarama.AccessTokenProvider = SaramaTokenProvider{}

func (p SaramaTokenProvider) Token() (*sarama.AccessToken, error) {
	token, err := p.Provider.Token(context.Background())
	if err != nil {
		return nil, err
	}
	return &sarama.AccessToken{Token: token}, nil
}

// KafkaGoMechanism is an RFC 7628 OAUTHBEARER client for segmentio/kafka-go,
// which does not ship one.
type KafkaGoMechanism struct {
	Provider TokenProvider
}

// make sure it implements kafka-go's sasl.Mechanism
var _ kafkasasl.Mechanism = KafkaGoMechanism{}

func (KafkaGoMechanism) Name() string {
	return "OAUTHBEARER"
}

func (m KafkaGoMechanism) Start(ctx context.Context) (kafkasasl.StateMachine, []byte, error) {
	token, err := m.Provider.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	if token == "" {
		return nil, nil, errors.New("oauthbearer: empty token")
	}
	return oauthSession{}, InitialResponse(token), nil
}

// InitialResponse builds the OAUTHBEARER client-first message: a GS2 header
// with no authzid followed by the auth key-value pair.
func InitialResponse(token string) []byte {
	return []byte("n,,\x01auth=Bearer " + token + "\x01\x01")
}

type oauthSession struct{}

// Next handles the single server reply. An empty reply means success; any
// payload is the server's JSON error status.
func (oauthSession) Next(_ context.Context, challenge []byte) (bool, []byte, error) {
	if len(challenge) == 0 {
		return true, nil, nil
	}
	return true, nil, fmt.Errorf("oauthbearer: authentication rejected: %s", challenge)
}
