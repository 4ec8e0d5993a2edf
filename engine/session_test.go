package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

func testInfo() pdfinfo.Info {
	return pdfinfo.Info{PageCount: 1, Page: bbox.PageSize{Width: 595, Height: 842}}
}

func TestSessionStorePutGet(t *testing.T) {
	store := NewSessionStore(time.Minute, 4)
	session := store.Put("invoice.pdf", []byte("%PDF-1.4"), testInfo())

	got, err := store.Get(session.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "invoice.pdf" || got.Info.Page.Width != 595 {
		t.Errorf("unexpected session %+v", got)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}

	t.Run("Malformed id", func(t *testing.T) {
		if _, err := store.Get("../../etc/passwd"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		if _, err := store.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(10*time.Minute, 4)
	store.now = func() time.Time { return now }

	kept := store.Put("kept.pdf", nil, testInfo())
	dropped := store.Put("dropped.pdf", nil, testInfo())

	now = now.Add(8 * time.Minute)
	if _, err := store.Get(kept.ID.String()); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// kept was touched at +8m, dropped was last seen at +0m
	now = now.Add(5 * time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, err := store.Get(dropped.ID.String()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected dropped session to be gone, got %v", err)
	}
	if _, err := store.Get(kept.ID.String()); err != nil {
		t.Errorf("kept session should survive the sweep: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := store.Get(kept.ID.String()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected expiry on Get, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestSessionStoreEvictsLeastRecentlyUsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Hour, 2)
	store.now = func() time.Time { return now }

	first := store.Put("first.pdf", nil, testInfo())
	now = now.Add(time.Second)
	second := store.Put("second.pdf", nil, testInfo())
	now = now.Add(time.Second)
	if _, err := store.Get(first.ID.String()); err != nil {
		t.Fatalf("Get first: %v", err)
	}
	now = now.Add(time.Second)
	store.Put("third.pdf", nil, testInfo())

	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if _, err := store.Get(second.ID.String()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second should have been evicted, got %v", err)
	}
	if _, err := store.Get(first.ID.String()); err != nil {
		t.Errorf("first was used recently and should remain: %v", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(time.Minute, 4)
	session := store.Put("a.pdf", nil, testInfo())

	if !store.Delete(session.ID.String()) {
		t.Fatal("Delete returned false for a live session")
	}
	if store.Delete(session.ID.String()) {
		t.Error("second Delete should report nothing removed")
	}
	if store.Delete("not-an-id") {
		t.Error("Delete of a malformed id should report nothing removed")
	}
}

func TestSweepJob(t *testing.T) {
	_, serverHandler, _ := newTestHandler(t)
	now := time.Now()
	serverHandler.Sessions.now = func() time.Time { return now }
	serverHandler.Sessions.Put("old.pdf", nil, testInfo())

	now = now.Add(serverHandler.ServerConfig.SessionTTL + time.Minute)
	serverHandler.sweepJobFunc()
	if serverHandler.Sessions.Len() != 0 {
		t.Errorf("sweep left %d sessions", serverHandler.Sessions.Len())
	}

	if err := serverHandler.InitializeSchedules(); err != nil {
		t.Fatalf("InitializeSchedules: %v", err)
	}
	serverHandler.StopSchedules()
}
