package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/middleware/requestid"
)

type recordingObserver struct {
	endpoint string
	status   int
	calls    int
}

func (r *recordingObserver) ObserveUpstreamRequest(_ string, endpoint string, status int, _ time.Duration) {
	r.endpoint = endpoint
	r.status = status
	r.calls++
}

type item struct {
	ID string `json:"id"`
}

func newTestClient(t *testing.T, srv *httptest.Server, creds CredentialProvider, obs Observer) *Client {
	t.Helper()
	client, err := NewClient(Options{BaseURL: srv.URL + "/api/", Credentials: creds, Observer: obs})
	require.NoError(t, err)
	return client
}

func TestClientGetJSONForwardsTokenAndRequestID(t *testing.T) {
	var gotAuth, gotReqID, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestid.HeaderKey)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := newTestClient(t, srv, nil, obs)

	ctx := WithToken(context.Background(), "tok-1")
	ctx = requestid.WithValue(ctx, "req-9")

	var items []item
	err := client.GetJSON(ctx, "/borrowed-assets", url.Values{"page": []string{"1"}}, &items)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "req-9", gotReqID)
	assert.Equal(t, "/api/borrowed-assets", gotPath)
	assert.Equal(t, "page=1", gotQuery)
	assert.Equal(t, []item{{ID: "a"}, {ID: "b"}}, items)
	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, http.StatusOK, obs.status)
}

func TestClientGetJSONUnwrapsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"x"}],"message":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, StaticToken("static"), nil)

	var items []item
	require.NoError(t, client.GetJSON(context.Background(), "request-asset/asset-manager", nil, &items))
	assert.Equal(t, []item{{ID: "x"}}, items)
}

func TestClientGetJSONMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent without a token")
	}))
	defer srv.Close()

	client := newTestClient(t, srv, nil, nil)

	var items []item
	err := client.GetJSON(context.Background(), "/borrowed-assets", nil, &items)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestClientGetJSONMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, appErrors.ErrUnauthorized.Code},
		{http.StatusForbidden, appErrors.ErrForbidden.Code},
		{http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.StatusServiceUnavailable, appErrors.ErrUpstreamUnavailable.Code},
		{http.StatusInternalServerError, appErrors.ErrUpstream.Code},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))
		client := newTestClient(t, srv, StaticToken("t"), nil)

		var items []item
		err := client.GetJSON(context.Background(), "/borrowed-assets", nil, &items)
		srv.Close()

		require.Error(t, err)
		assert.Equal(t, tc.code, appErrors.FromError(err).Code, "status %d", tc.status)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, tc.status, statusErr.StatusCode)
	}
}

func TestClientGetJSONRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, StaticToken("t"), nil)
	var items []item
	err := client.GetJSON(context.Background(), "/borrowed-assets", nil, &items)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "assets.local"})
	require.Error(t, err)
}
