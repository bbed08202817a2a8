package rfced

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPostApprovedDraft(t *testing.T) {
	ctx := context.Background()
	cfg := Config{SyncPassword: "secret", TimeoutSeconds: 2}

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "dtracksync", user)
			assert.Equal(t, "secret", pass)

			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "draft-ietf-example", r.PostFormValue("draft"))

			w.Write([]byte("OK"))
		}))
		defer srv.Close()

		text, errMsg := PostApprovedDraft(ctx, cfg, zap.NewNop(), srv.URL, "draft-ietf-example")
		assert.Equal(t, "OK", text)
		assert.Equal(t, "", errMsg)
	})

	t.Run("UnexpectedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("draft not found"))
		}))
		defer srv.Close()

		text, errMsg := PostApprovedDraft(ctx, cfg, zap.NewNop(), srv.URL, "draft-ietf-example")
		assert.Equal(t, "", text)
		assert.Equal(t, `Response is not "OK" (it's "draft not found").`, errMsg)
	})

	t.Run("BadStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		text, errMsg := PostApprovedDraft(ctx, cfg, zap.NewNop(), srv.URL, "draft-ietf-example")
		assert.Equal(t, "", text)
		assert.Equal(t, "Status code is not 200 OK (it's 503).", errMsg)
	})

	t.Run("ConnectionError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		text, errMsg := PostApprovedDraft(ctx, cfg, zap.NewNop(), url, "draft-ietf-example")
		assert.Equal(t, "", text)
		assert.NotEmpty(t, errMsg, "Transport failures surface as an error string, never a panic")
	})
}
