package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	st, err := NewStore("bbolt", filepath.Join(t.TempDir(), "articles.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveAndExistsByLink(t *testing.T) {
	st := newTestStore(t)

	id, err := st.Save(Article{
		SourceID:     "src-1",
		Title:        "Учения завершены",
		Body:         "Подразделения вернулись в пункты постоянной дислокации.",
		OriginalLink: "https://example.com/a",
		ContentHash:  "aabbccdd00112233",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty id")
	}

	gotID, ok, err := st.ExistsByLink("https://example.com/a")
	if err != nil {
		t.Fatalf("ExistsByLink: %v", err)
	}
	if !ok || gotID != id {
		t.Fatalf("ExistsByLink = (%q, %t), want (%q, true)", gotID, ok, id)
	}

	if _, ok, _ := st.ExistsByLink("https://example.com/other"); ok {
		t.Fatal("unknown link reported as existing")
	}
}

func TestSaveRejectsDuplicateLink(t *testing.T) {
	st := newTestStore(t)

	article := Article{Title: "t", Body: "b", OriginalLink: "https://example.com/dup"}
	if _, err := st.Save(article); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	_, err := st.Save(article)
	if !errors.Is(err, ErrDuplicateLink) {
		t.Fatalf("second Save error = %v, want ErrDuplicateLink", err)
	}
}

func TestFindRecentHashCandidates(t *testing.T) {
	st := newTestStore(t)

	hashes := []string{"deadbeef01", "deadbeef02", "cafebabe01"}
	for i, hash := range hashes {
		_, err := st.Save(Article{
			Title:        "Заголовок",
			Body:         "Текст статьи",
			OriginalLink: "https://example.com/" + hash,
			ContentHash:  hash,
		})
		if err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
	}

	items, err := st.FindRecentHashCandidates("deadbeef", 10)
	if err != nil {
		t.Fatalf("FindRecentHashCandidates: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("candidates = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.ID == "" || item.Body == "" {
			t.Fatalf("candidate missing fields: %+v", item)
		}
	}

	items, err = st.FindRecentHashCandidates("deadbeef", 1)
	if err != nil {
		t.Fatalf("FindRecentHashCandidates with limit: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("limited candidates = %d, want 1", len(items))
	}

	items, err = st.FindRecentHashCandidates("00000000", 10)
	if err != nil {
		t.Fatalf("FindRecentHashCandidates miss: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no candidates, got %d", len(items))
	}
}

func TestSchedulerStateRoundTrip(t *testing.T) {
	st := newTestStore(t)

	if _, ok, err := st.LoadSchedulerState(); err != nil || ok {
		t.Fatalf("fresh store state = (ok=%t, err=%v), want absent", ok, err)
	}

	payload := []byte(`{"entries":[{"source_id":"src-1"}]}`)
	if err := st.SaveSchedulerState(payload); err != nil {
		t.Fatalf("SaveSchedulerState: %v", err)
	}

	got, ok, err := st.LoadSchedulerState()
	if err != nil {
		t.Fatalf("LoadSchedulerState: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("state = (%q, %t), want original payload", got, ok)
	}
}

func TestHashValueEncoding(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	value := encodeHashValue(expiry, "article-1")

	gotExpiry, gotID, ok := decodeHashValue(value)
	if !ok {
		t.Fatal("decodeHashValue rejected a valid value")
	}
	if !gotExpiry.Equal(expiry) || gotID != "article-1" {
		t.Fatalf("decoded (%v, %q), want (%v, %q)", gotExpiry, gotID, expiry, "article-1")
	}

	if _, _, ok := decodeHashValue([]byte("short")); ok {
		t.Fatal("decodeHashValue accepted a truncated value")
	}
}

func TestNoopStore(t *testing.T) {
	st, err := NewStore("", "", Options{})
	if err != nil {
		t.Fatalf("NewStore noop: %v", err)
	}

	if _, ok, _ := st.ExistsByLink("x"); ok {
		t.Fatal("noop store reported a stored link")
	}
	if id, err := st.Save(Article{OriginalLink: "x"}); err != nil || id != "" {
		t.Fatalf("noop Save = (%q, %v)", id, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("postgres", "", Options{}); err == nil {
		t.Fatal("expected error for unsupported storage type")
	}
}
