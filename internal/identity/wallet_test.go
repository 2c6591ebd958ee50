package identity

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjunhg/think-waste/internal/credential"
)

func newTestProvider(t *testing.T, verifier *Verifier, tokens *credential.Store, opts ...Option) *WalletProvider {
	t.Helper()
	log, _ := test.NewNullLogger()
	cfg := Config{
		AuthURL:      "https://wallet.example/login",
		ClientID:     "client-1",
		ChainID:      "0xaa36a7",
		Network:      "testnet",
		LoginTimeout: 5 * time.Second,
	}
	opts = append([]Option{WithOutput(&bytes.Buffer{})}, opts...)
	return NewWalletProvider(cfg, verifier, tokens, log, opts...)
}

// browserReturning simulates the wallet page redirecting back with token.
func browserReturning(t *testing.T, token string) func(string) error {
	return func(loginURL string) error {
		u, err := url.Parse(loginURL)
		if err != nil {
			return err
		}
		q := u.Query()
		assert.Equal(t, "client-1", q.Get("client_id"))
		assert.Equal(t, "0xaa36a7", q.Get("chain_id"))

		callback := q.Get("redirect_uri") + "?" + url.Values{
			"state":    {q.Get("state")},
			"id_token": {token},
		}.Encode()
		go func() {
			resp, err := http.Get(callback)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestInitializeRestoresStoredToken(t *testing.T) {
	key := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))
	require.NoError(t, tokens.Set(credential.IDTokenKey, signToken(t, key, "a@x.com", "Ana", time.Hour)))

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens)
	require.NoError(t, p.Initialize(context.Background()))
	assert.True(t, p.IsConnected())

	info, err := p.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UserInfo{Email: "a@x.com", Name: "Ana"}, info)
}

func TestInitializeDiscardsInvalidToken(t *testing.T) {
	key := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))
	require.NoError(t, tokens.Set(credential.IDTokenKey, signToken(t, key, "a@x.com", "", -time.Hour)))

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens)
	require.NoError(t, p.Initialize(context.Background()))
	assert.False(t, p.IsConnected())

	_, err := tokens.Get(credential.IDTokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestInitializeWithoutToken(t *testing.T) {
	p := newTestProvider(t, NewVerifier(nil, "", ""), credential.New(keyring.NewArrayKeyring(nil)))
	require.NoError(t, p.Initialize(context.Background()))
	assert.False(t, p.IsConnected())

	_, err := p.UserInfo(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectViaLoopbackCallback(t *testing.T) {
	key := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))
	raw := signToken(t, key, "b@x.com", "Bo", time.Hour)

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens,
		WithBrowser(browserReturning(t, raw)))

	h, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", h.Subject)
	assert.True(t, p.IsConnected())

	stored, err := tokens.Get(credential.IDTokenKey)
	require.NoError(t, err)
	assert.Equal(t, raw, stored)

	info, err := p.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", info.Email)
}

func TestConnectRejectsUnverifiedToken(t *testing.T) {
	key := newECKey(t)
	other := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens,
		WithBrowser(browserReturning(t, signToken(t, other, "b@x.com", "", time.Hour))))

	_, err := p.Connect(context.Background())
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, p.IsConnected())
}

func TestConnectFallsBackToClipboard(t *testing.T) {
	var out bytes.Buffer
	var copied string

	p := newTestProvider(t, NewVerifier(nil, "", ""), credential.New(keyring.NewArrayKeyring(nil)),
		WithOutput(&out),
		WithBrowser(func(string) error { return errors.New("no display") }),
		WithClipboard(func(s string) error { copied = s; return nil }),
	)
	p.cfg.LoginTimeout = 50 * time.Millisecond

	_, err := p.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login timed out")
	assert.Contains(t, out.String(), "Visit this URL manually")
	assert.Contains(t, copied, "https://wallet.example/login?")
}

func TestConnectRequiresAuthURL(t *testing.T) {
	p := newTestProvider(t, nil, credential.New(keyring.NewArrayKeyring(nil)))
	p.cfg.AuthURL = ""

	_, err := p.Connect(context.Background())
	assert.Error(t, err)
}

func TestDisconnect(t *testing.T) {
	key := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))
	require.NoError(t, tokens.Set(credential.IDTokenKey, signToken(t, key, "a@x.com", "", time.Hour)))

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens)
	require.NoError(t, p.Initialize(context.Background()))

	require.NoError(t, p.Disconnect(context.Background()))
	assert.False(t, p.IsConnected())
	_, err := tokens.Get(credential.IDTokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)

	assert.ErrorIs(t, p.Disconnect(context.Background()), ErrNotConnected)
}

func TestConnectSurvivesForeignCallback(t *testing.T) {
	key := newECKey(t)
	tokens := credential.New(keyring.NewArrayKeyring(nil))
	raw := signToken(t, key, "b@x.com", "Bo", time.Hour)
	genuine := browserReturning(t, raw)

	stray := func(loginURL string) error {
		u, err := url.Parse(loginURL)
		if err != nil {
			return err
		}
		resp, err := http.Get(u.Query().Get("redirect_uri") + "?state=not-ours&id_token=forged")
		if err != nil {
			return err
		}
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		return genuine(loginURL)
	}

	p := newTestProvider(t, NewVerifier(&key.PublicKey, testIssuer, testAudience), tokens,
		WithBrowser(stray))

	h, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", h.Subject)
	assert.True(t, p.IsConnected())
}
