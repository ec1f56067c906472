package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, nil)
}

func TestClient_ListMediaEncodesQuery(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(domain.MediaPage{
			Total: 1,
			Items: []domain.MediaFile{{ID: 3, Title: "Pilot"}},
		})
	})

	page, err := client.ListMedia(context.Background(), MediaQuery{
		Skip:           40,
		Limit:          20,
		Search:         "pilot",
		UnresolvedOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/media/", gotPath)
	assert.Equal(t, "limit=20&search=pilot&skip=40&unresolved_only=true", gotQuery)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Pilot", page.Items[0].Title)
}

func TestClient_SubmitTrimPayload(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/media/9/trim", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(domain.TrimJob{ID: 12, Status: domain.StatusPending})
	})

	job, err := client.SubmitTrim(context.Background(), 9, 10.0, 40.5, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, job.ID)
	assert.Equal(t, 10.0, gotBody["remove_start"])
	assert.Equal(t, 40.5, gotBody["remove_end"])
	assert.Equal(t, float64(4), gotBody["issue_id"])
}

func TestClient_SubmitTrimOmitsZeroIssue(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(domain.TrimJob{ID: 1})
	})

	_, err := client.SubmitTrim(context.Background(), 9, 0, 0.5, 0)
	require.NoError(t, err)
	_, present := gotBody["issue_id"]
	assert.False(t, present)
}

func TestClient_PollAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/plex/auth/poll/42", r.URL.Path)
		w.Write([]byte(`{"authenticated": true}`))
	})

	ok, err := client.PollAuth(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_ErrorDetailSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "trim already running for this file"}`))
	})

	_, err := client.SubmitTrim(context.Background(), 9, 1, 2, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trim already running for this file")
}

func TestClient_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetScan(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_OfflineServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, nil)

	_, err := client.ConnectionStatus(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestClient_CancelSync(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/plex/sync", r.URL.Path)
		w.Write([]byte(`{"cancelled": true}`))
	})

	ok, err := client.CancelSync(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
