package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio/pkg/models"
)

func TestGetPortfolio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/portfolio", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(Portfolio{
			Projects:    []models.Project{{Title: "Folio"}},
			ClientCount: 3,
			PageViews:   99,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, err := c.GetPortfolio(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Projects, 1)
	assert.Equal(t, 3, p.ClientCount)
	assert.Equal(t, int64(99), p.PageViews)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/login":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "owner@example.com", req["email"])
			json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
		case "/api/admin/messages":
			// Subsequent requests must carry the session token.
			assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode([]models.ContactMessage{})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Login(context.Background(), "owner@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "session-token", resp.Token)

	_, err = c.ListMessages(context.Background())
	require.NoError(t, err)
}

func TestErrorResponseIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"the data store is over quota, try again later","code":"resource-exhausted"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=503")
	assert.Contains(t, err.Error(), "resource-exhausted")
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contact", r.URL.Path)
		var msg models.ContactMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		msg.ID = models.NewMessageID()
		msg.Status = models.StatusNew
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(msg)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	created, err := c.SendMessage(context.Background(), &models.ContactMessage{
		Name: "V", Email: "v@e.c", Subject: "Hi", Body: "Hello",
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, models.StatusNew, created.Status)
}

func TestUpdateProfileReportsWritten(t *testing.T) {
	written := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/profile", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"written": written})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.UpdateProfile(context.Background(), &models.Profile{ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	assert.True(t, got)

	written = false
	got, err = c.UpdateProfile(context.Background(), &models.Profile{ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	assert.False(t, got)
}
