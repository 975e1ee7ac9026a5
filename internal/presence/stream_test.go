package presence

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func TestStreamClientUpsertUser(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotAuth   string
		gotScheme string
		gotBody   map[string]map[string]User
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotAuth = r.Header.Get("Authorization")
		gotScheme = r.Header.Get("Stream-Auth-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"users":{}}`))
	}))
	defer srv.Close()

	client, err := NewStreamClient(utils.StreamConfig{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   srv.URL + "/",
	})
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{ID: "u1", Name: "A B", Image: "img.png"})
	require.NoError(t, err)

	assert.Equal(t, "/users", gotPath)
	assert.Equal(t, "key", gotKey)
	assert.Equal(t, "jwt", gotScheme)
	assert.Equal(t, User{ID: "u1", Name: "A B", Image: "img.png"}, gotBody["users"]["u1"])

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(gotAuth, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, true, claims["server"])
}

func TestStreamClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":5,"message":"api key not valid","StatusCode":401}`))
	}))
	defer srv.Close()

	client, err := NewStreamClient(utils.StreamConfig{APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{ID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not valid")
	assert.Contains(t, err.Error(), "401")
}

func TestNewStreamClientRequiresCredentials(t *testing.T) {
	_, err := NewStreamClient(utils.StreamConfig{APIKey: "key"})
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestBuildStreamErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	err := buildStreamError(http.StatusBadGateway, long)
	assert.LessOrEqual(t, len(err.Error()), maxErrorSnippet+64)
}
