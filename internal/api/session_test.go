package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"simplirtc/native/internal/auth"
	"simplirtc/native/internal/credential"
	"simplirtc/native/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVendor serves the Auth0 token endpoint, the API and the live-view hub.
type fakeVendor struct {
	*httptest.Server

	validRefresh   atomic.Value // string
	rotations      atomic.Int32
	expiresIn      int
	liveViewStatus int
	liveViewBody   string
	liveViewPath   atomic.Value // string
	apiCalls       atomic.Int32
	stalled        string // path prefix that never answers
}

// newFakeVendor applies opts before the server starts accepting requests.
func newFakeVendor(t *testing.T, refreshToken string, opts ...func(*fakeVendor)) *fakeVendor {
	t.Helper()
	v := &fakeVendor{
		expiresIn:      3600,
		liveViewStatus: http.StatusOK,
		liveViewBody:   `{"signedChannelEndpoint":"arn:aws:kinesisvideo:us-east-1:123:channel/x","clientId":"client-1","iceServers":[{"urls":"stun:b"},{"urls":"turn:a","username":"u"}]}`,
	}
	v.validRefresh.Store(refreshToken)
	for _, opt := range opts {
		opt(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", v.token)
	mux.HandleFunc("/v1/api/authCheck", func(w http.ResponseWriter, r *http.Request) {
		if !v.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"userId": 4242}`)
	})
	mux.HandleFunc("/v1/users/4242/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		if !v.authorized(r) || r.URL.Query().Get("activeOnly") != "true" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"subscriptions":[
			{"sid": 111, "location": {"street1": "1 Main St", "system": {"version": 3, "cameras": [
				{"uuid": "cam-a", "cameraSettings": {"cameraName": "Front Door"}},
				{"uuid": "cam-b", "cameraSettings": {"cameraName": "Garage"}}]}}},
			{"sid": 222, "location": {"street1": "2 Old Rd", "system": {"version": 2, "cameras": []}}}
		]}`)
	})
	mux.HandleFunc("/v2/cameras/", func(w http.ResponseWriter, r *http.Request) {
		v.apiCalls.Add(1)
		v.liveViewPath.Store(r.URL.Path)
		if !v.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(v.liveViewStatus)
		fmt.Fprint(w, v.liveViewBody)
	})

	v.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v.stalled != "" && strings.HasPrefix(r.URL.Path, v.stalled) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(v.Close)
	return v
}

// token rotates the refresh token on every successful refresh.
func (v *fakeVendor) token(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != v.validRefresh.Load().(string) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Unknown or invalid refresh token."}`)
		return
	}
	n := v.rotations.Add(1)
	next := fmt.Sprintf("refresh-%d", n)
	v.validRefresh.Store(next)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  fmt.Sprintf("access-%d", n),
		"token_type":    "Bearer",
		"expires_in":    v.expiresIn,
		"refresh_token": next,
	})
}

func (v *fakeVendor) authorized(r *http.Request) bool {
	return len(r.Header.Get("Authorization")) > len("Bearer access-")
}

func (v *fakeVendor) config() Config {
	authCfg := auth.DefaultConfig()
	authCfg.TokenURL = v.URL + "/oauth/token"
	return Config{
		APIBaseURL: v.URL + "/v1",
		HubBaseURL: v.URL + "/v2",
		Auth:       authCfg,
		HTTPClient: v.Client(),
		Timeout:    2 * time.Second,
	}
}

func newStore(t *testing.T, token domain.RefreshToken) *credential.Store {
	t.Helper()
	store := credential.NewStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(token))
	return store
}

func TestOpen_PersistsRotatedToken(t *testing.T) {
	vendor := newFakeVendor(t, "initial")
	store := newStore(t, "initial")

	session, err := Open(context.Background(), vendor.config(), store)
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.RefreshToken("refresh-1"), saved)
	assert.Equal(t, saved, session.RefreshToken())
}

func TestOpen_RejectedToken(t *testing.T) {
	vendor := newFakeVendor(t, "valid")
	store := newStore(t, "expired")

	_, err := Open(context.Background(), vendor.config(), store)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication), "got %v", err)

	// The stored token is left alone.
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.RefreshToken("expired"), saved)
}

func TestOpen_MissingCredentials(t *testing.T) {
	vendor := newFakeVendor(t, "valid")
	store := credential.NewStore(filepath.Join(t.TempDir(), "nope.json"))

	_, err := Open(context.Background(), vendor.config(), store)
	assert.True(t, errors.Is(err, domain.ErrCredentialNotFound))
	assert.Equal(t, int32(0), vendor.rotations.Load())
}

func TestOpen_Timeouts(t *testing.T) {
	tests := []struct {
		name    string
		stalled string
	}{
		{"token refresh", "/oauth/token"},
		{"auth check", "/v1/api/authCheck"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendor := newFakeVendor(t, "initial", func(v *fakeVendor) { v.stalled = tt.stalled })
			cfg := vendor.config()
			cfg.Timeout = 50 * time.Millisecond

			start := time.Now()
			_, err := Open(context.Background(), cfg, newStore(t, "initial"))

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrTimeout), "got %v", err)
			assert.False(t, errors.Is(err, domain.ErrAuthentication), "got %v", err)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestRotation_ListenerFailureIsRetried(t *testing.T) {
	vendor := newFakeVendor(t, "initial")
	session := NewSession(vendor.config(), "initial")

	var calls atomic.Int32
	var saved atomic.Value
	session.AddRotationListener(domain.ListenerFunc(func(token domain.RefreshToken) error {
		if calls.Add(1) == 1 {
			return errors.New("disk full")
		}
		saved.Store(token)
		return nil
	}))

	err := session.Establish(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	require.NoError(t, session.Establish(context.Background()))
	assert.Equal(t, domain.RefreshToken("refresh-1"), saved.Load())
	assert.Equal(t, int32(1), vendor.rotations.Load())
}

func TestRotation_ConcurrentCallersLeaveNewestTokenOnDisk(t *testing.T) {
	// Tokens expire inside the refresh margin, so every call refreshes.
	vendor := newFakeVendor(t, "initial", func(v *fakeVendor) { v.expiresIn = 1 })
	store := newStore(t, "initial")

	session, err := Open(context.Background(), vendor.config(), store)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.LiveView(context.Background(), "loc", "cam")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, session.RefreshToken(), saved)
	assert.Equal(t, domain.RefreshToken(vendor.validRefresh.Load().(string)), saved)
	assert.Greater(t, vendor.rotations.Load(), int32(1))
}

func TestSystems_ListsV3Cameras(t *testing.T) {
	vendor := newFakeVendor(t, "initial")
	session, err := Open(context.Background(), vendor.config(), newStore(t, "initial"))
	require.NoError(t, err)

	systems, err := session.Systems(context.Background())
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "111", systems[0].ID)
	assert.Equal(t, "1 Main St", systems[0].Address)
	assert.Equal(t, []domain.Camera{
		{ID: "cam-a", Name: "Front Door"},
		{ID: "cam-b", Name: "Garage"},
	}, systems[0].Cameras)
}

func TestSystems_RequiresEstablishedSession(t *testing.T) {
	vendor := newFakeVendor(t, "initial")
	session := NewSession(vendor.config(), "initial")

	_, err := session.Systems(context.Background())
	assert.True(t, errors.Is(err, domain.ErrAuthentication))
}
