package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, url, key string) *BrevoSender {
	t.Helper()
	c, err := NewComposer("en", "http://localhost/login.html")
	require.NoError(t, err)
	return NewBrevoSender(http.DefaultClient, url+"/", key, "noreply@example.com", "Event Portal", c)
}

func TestBrevoSender_Deliver(t *testing.T) {
	var got brevoEmail
	var path, key string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<1@smtp>"}`))
	}))
	defer ts.Close()

	s := newTestSender(t, ts.URL, "secret")
	err := s.Deliver(context.Background(), Credential{UserID: "u-1", Email: "alice@example.com", Name: "Alice", Password: "pw", Version: 1})
	require.NoError(t, err)

	assert.Equal(t, "/smtp/email", path)
	assert.Equal(t, "secret", key)
	assert.Equal(t, "Event Portal", got.Sender.Name)
	require.Len(t, got.To, 1)
	assert.Equal(t, "alice@example.com", got.To[0].Email)
	assert.Equal(t, "Event Portal - Approval Confirmation", got.Subject)
	assert.Contains(t, got.HTMLContent, "pw")
}

func TestBrevoSender_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	err := newTestSender(t, ts.URL, "secret").Deliver(context.Background(), Credential{Email: "a@b.c"})
	assert.True(t, errors.Is(err, common.ErrDeliveryFailed), "got %v", err)
}

func TestBrevoSender_MissingKey(t *testing.T) {
	err := newTestSender(t, "http://127.0.0.1:1", "").Deliver(context.Background(), Credential{Email: "a@b.c"})
	assert.ErrorIs(t, err, common.ErrDeliveryFailed)
}
