package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markmcclatchy/auth-service/internal/model"
)

func mustEmail(t *testing.T, raw string) model.Email {
	t.Helper()
	e, err := model.ParseEmail(raw)
	require.NoError(t, err)
	return e
}

func TestPostmarkSend(t *testing.T) {
	var got sendEmailRequest
	var gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/email", r.URL.Path)
		gotToken = r.Header.Get(postmarkTokenHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewPostmark(srv.URL, model.NewSecret("pm-token"), mustEmail(t, "noreply@example.com"), time.Second)

	err := client.Send(context.Background(), mustEmail(t, "user@example.com"), "Your code", "123456")
	require.NoError(t, err)

	assert.Equal(t, "pm-token", gotToken)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, "user@example.com", got.To)
	assert.Equal(t, "Your code", got.Subject)
	assert.Equal(t, "123456", got.TextBody)
	assert.Equal(t, messageStream, got.MessageStream)
}

func TestPostmarkSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewPostmark(srv.URL, model.NewSecret("pm-token"), mustEmail(t, "noreply@example.com"), time.Second)

	err := client.Send(context.Background(), mustEmail(t, "user@example.com"), "subj", "body")
	assert.ErrorContains(t, err, "422")
}

func TestMockRecordsSends(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Send(context.Background(), mustEmail(t, "a@example.com"), "s1", "c1"))
	require.NoError(t, m.Send(context.Background(), mustEmail(t, "b@example.com"), "s2", "c2"))

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].Recipient.Expose())
	assert.Equal(t, "s2", sent[1].Subject)
}
