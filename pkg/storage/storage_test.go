package storage

import (
	"errors"
	"testing"

	"audio2sign/pkg/models"
)

func newTranslations(texts ...string) []*models.Translation {
	out := make([]*models.Translation, 0, len(texts))
	for _, text := range texts {
		out = append(out, models.NewTranslation(text))
	}
	return out
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(2)
	ts := newTranslations("one", "two", "three")
	for _, tr := range ts {
		if err := store.StoreTranslation(tr); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := store.GetTranslation(ts[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest translation still present, err = %v", err)
	}

	recent, err := store.RecentTranslations(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Text != "three" || recent[1].Text != "two" {
		t.Errorf("recent = %v, want [three two]", texts(recent))
	}
}

func TestDiskStore(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	defer store.Close()

	ts := newTranslations("hello world", "good morning", "thank you")
	ts[0].Videos = []string{"/static/Hello.mp4", "/static/W.mp4"}
	for _, tr := range ts {
		if err := store.StoreTranslation(tr); err != nil {
			t.Fatalf("StoreTranslation() error = %v", err)
		}
	}

	got, err := store.GetTranslation(ts[0].ID)
	if err != nil {
		t.Fatalf("GetTranslation() error = %v", err)
	}
	if got.Text != "hello world" || len(got.Videos) != 2 {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetTranslation("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}

	recent, err := store.RecentTranslations(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Text != "thank you" || recent[1].Text != "good morning" {
		t.Errorf("recent = %v, want [thank you, good morning]", texts(recent))
	}
}

func texts(ts []*models.Translation) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}
