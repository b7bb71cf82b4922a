package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/config"
	"github.com/swimref/roster/internal/documents"
	"github.com/swimref/roster/internal/logging"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/sqlite"
)

func testConfig() config.Config {
	return config.Config{
		HTTPPort:              8080,
		LogLevel:              "info",
		LogFormat:             "json",
		Storage:               config.StorageMemory,
		SessionSecret:         "test-secret",
		SessionTTL:            time.Hour,
		SeedPassword:          "swimref",
		NotificationRetention: 10,
		Documents:             config.DocumentsStore,
		MaxUploadBytes:        1 << 20,
		Gemini:                config.GeminiConfig{Timeout: time.Second},
	}
}

func TestNewAppServesSeededRoster(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	login := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"admin@swimref.pt","password":"swimref"}`))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, login)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	list := httptest.NewRequest(http.MethodGet, "/api/competitions", nil)
	list.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, list)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = a.adapter.Load(ctx, persistence.KeyUsers)
	assert.NoError(t, err, "seed users are written back")
}

// serve runs one request against the wired handler and returns the recorder.
func serve(t *testing.T, a *app, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, a *app, email, password string) string {
	t.Helper()
	rec := serve(t, a, http.MethodPost, "/api/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Token
}

func TestNewAppAssignsDistinctIDs(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	type entity struct {
		ID string `json:"id"`
	}

	register := func(name, email string) string {
		rec := serve(t, a, http.MethodPost, "/api/register", "", `{"name":"`+name+`","email":"`+email+`","password":"piscina-olimpica"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			User entity `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.User.ID)
		return body.User.ID
	}
	marta := register("Marta Silva", "marta@natacao.pt")
	joana := register("Joana Reis", "joana@natacao.pt")
	assert.NotEqual(t, marta, joana)

	admin := loginAs(t, a, "admin@swimref.pt", "swimref")
	for _, id := range []string{marta, joana} {
		rec := serve(t, a, http.MethodPost, "/api/users/"+id+"/approve", admin, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	create := func(name, date string) string {
		rec := serve(t, a, http.MethodPost, "/api/competitions", admin,
			`{"name":"`+name+`","date":"`+date+`","location":"Piscina Municipal","level":"Regional"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			Competition entity `json:"competition"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.Competition.ID)
		return body.Competition.ID
	}
	winter := create("Taça de Inverno", "2025-01-18")
	summer := create("Taça de Verão", "2025-07-05")
	assert.NotEqual(t, winter, summer)

	for _, email := range []string{"marta@natacao.pt", "joana@natacao.pt"} {
		token := loginAs(t, a, email, "piscina-olimpica")
		rec := serve(t, a, http.MethodPost, "/api/competitions/"+winter+"/rsvp", token, `{"status":"Attending"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := serve(t, a, http.MethodGet, "/api/competitions/"+winter, admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Competition struct {
			RSVPs []struct {
				ID     string `json:"id"`
				UserID string `json:"user_id"`
			} `json:"rsvps"`
		} `json:"competition"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	rsvps := got.Competition.RSVPs
	require.Len(t, rsvps, 2)
	assert.NotEqual(t, rsvps[0].ID, rsvps[1].ID)
	assert.ElementsMatch(t, []string{marta, joana}, []string{rsvps[0].UserID, rsvps[1].UserID})
}

func TestNewAppBriefingWithoutAPIKey(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	req := httptest.NewRequest(http.MethodPost, "/api/generate-briefing", strings.NewReader(`{"competition":{"name":"Taça"},"attendees":[]}`))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "API Key")
}

func TestOpenAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = config.StorageSQLite
		cfg.SQLiteDSN = sqlite.MemoryConfig().DSN

		adapter, client, err := openAdapter(ctx, cfg, logging.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = adapter.Close() })
		assert.Nil(t, client)
		assert.IsType(t, &sqlite.Adapter{}, adapter)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = "etcd"

		_, _, err := openAdapter(ctx, cfg, logging.Discard())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "etcd")
	})
}

func TestOpenContentStoreDefaultsToAdapterBlobs(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	content, err := openContentStore(context.Background(), testConfig(), a.adapter)
	require.NoError(t, err)
	assert.IsType(t, &documents.BlobStore{}, content)
}
