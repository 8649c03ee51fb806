package mailchannels

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeafter619/mail-gateway/internal/config"
)

func testMessage() *Message {
	return &Message{
		Personalizations: []Personalization{
			{To: []Address{{Email: "b@y.com", Name: "b@y.com"}}},
		},
		From:    Address{Email: "a@x.com", Name: "a@x.com"},
		Subject: "hi",
		Content: []Content{{Type: "text/plain", Value: "hello"}},
	}
}

func newTestClient(url string) *Client {
	return NewClient(config.ProviderConfig{BaseURL: url, APIKey: "key", TimeoutSeconds: 5})
}

func TestSendSuccess(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, "hi", captured["subject"])
	from := captured["from"].(map[string]interface{})
	assert.Equal(t, "a@x.com", from["email"])
}

func TestSendOmitsEmptyDKIMFields(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.NotContains(t, raw, "dkim_domain")
	assert.NotContains(t, raw, "dkim_selector")
	assert.NotContains(t, raw, "dkim_private_key")
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["bad recipient"]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad recipient")
}

func TestSendRedirectStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 304")
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestSendTransportError(t *testing.T) {
	c := &Client{baseURL: "http://provider.invalid", httpClient: failingDoer{}}

	err := c.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRedacted(t *testing.T) {
	msg := testMessage()
	msg.Personalizations[0].DKIMDomain = "x.com"
	msg.Personalizations[0].DKIMSelector = "mc"
	msg.Personalizations[0].DKIMPrivateKey = "very-secret"

	red := msg.Redacted()

	assert.Empty(t, red.Personalizations[0].DKIMPrivateKey)
	assert.Equal(t, "x.com", red.Personalizations[0].DKIMDomain)
	assert.Equal(t, "mc", red.Personalizations[0].DKIMSelector)
	// Original is untouched.
	assert.Equal(t, "very-secret", msg.Personalizations[0].DKIMPrivateKey)
}
