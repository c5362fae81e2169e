package photos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventlens/api/internal/config"
	"github.com/eventlens/api/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.PhotosConfig{BaseURL: srv.URL})
}

func TestGetEvent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/events/evt-1" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(model.Event{ID: "evt-1", Slug: "sara-wedding", Name: "Sara's Wedding"})
	}))

	event, err := client.GetEvent(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if event.Slug != "sara-wedding" {
		t.Errorf("expected slug sara-wedding, got %s", event.Slug)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	if _, err := client.GetEvent(context.Background(), "missing"); err != ErrEventNotFound {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestListApproved_OrderAndTruncation(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "approved" {
			t.Errorf("expected status=approved query, got %q", got)
		}
		photos := []model.Photo{
			{ID: "p1", FileName: "a.jpg", Status: model.PhotoStatusApproved, CreatedAt: base},
			{ID: "p3", FileName: "c.jpg", Status: model.PhotoStatusApproved, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "p2", FileName: "b.jpg", Status: model.PhotoStatusApproved, CreatedAt: base.Add(time.Hour)},
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"photos": photos})
	}))

	photos, err := client.ListApproved(context.Background(), "evt-1", 2)
	if err != nil {
		t.Fatalf("ListApproved failed: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos after truncation, got %d", len(photos))
	}
	if photos[0].ID != "p3" || photos[1].ID != "p2" {
		t.Errorf("expected newest-first order p3,p2; got %s,%s", photos[0].ID, photos[1].ID)
	}
}

func TestListApproved_Empty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"photos": []model.Photo{}})
	}))

	photos, err := client.ListApproved(context.Background(), "evt-1", 10)
	if err != nil {
		t.Fatalf("ListApproved failed: %v", err)
	}
	if len(photos) != 0 {
		t.Errorf("expected empty slice, got %d photos", len(photos))
	}
}
