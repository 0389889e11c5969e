package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "wheel.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return repo
}

func TestSQLiteStore_SeedAndList(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	want := []domain.Challenge{
		{ID: 0, Text: "Howl at the moon", Difficulty: domain.DifficultyEasy},
		{ID: 1, Text: "Tell a ghost story", Difficulty: domain.DifficultyMedium},
		{ID: 2, Text: "Eat a raw onion", Difficulty: domain.DifficultyHard},
	}
	if err := repo.SeedChallenges(ctx, want); err != nil {
		t.Fatalf("SeedChallenges() error = %v", err)
	}

	got, err := repo.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d challenges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("challenge %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSQLiteStore_SeedReplaces(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	first := []domain.Challenge{
		{ID: 0, Text: "Howl at the moon", Difficulty: domain.DifficultyEasy},
		{ID: 1, Text: "Tell a ghost story", Difficulty: domain.DifficultyMedium},
	}
	if err := repo.SeedChallenges(ctx, first); err != nil {
		t.Fatalf("SeedChallenges() error = %v", err)
	}

	second := []domain.Challenge{{ID: 0, Text: "Moonwalk", Difficulty: domain.DifficultyHard}}
	if err := repo.SeedChallenges(ctx, second); err != nil {
		t.Fatalf("SeedChallenges() error = %v", err)
	}

	n, err := repo.CountChallenges(ctx)
	if err != nil {
		t.Fatalf("CountChallenges() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 challenge after reseed, got %d", n)
	}
}

func TestSQLiteStore_RejectsUnknownDifficulty(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	seed := []domain.Challenge{{ID: 0, Text: "Howl", Difficulty: domain.DifficultyEasy}}
	if err := repo.SeedChallenges(ctx, seed); err != nil {
		t.Fatalf("SeedChallenges() error = %v", err)
	}

	bad := []domain.Challenge{{ID: 0, Text: "Howl", Difficulty: "extreme"}}
	if err := repo.SeedChallenges(ctx, bad); err == nil {
		t.Fatal("Expected constraint error for unknown difficulty")
	}

	// The failed seed must roll back and leave the previous catalog intact.
	got, err := repo.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges() error = %v", err)
	}
	if len(got) != 1 || got[0].Difficulty != domain.DifficultyEasy {
		t.Errorf("Expected original catalog, got %+v", got)
	}
}

func TestSQLiteStore_EmptyCatalog(t *testing.T) {
	repo := newTestStore(t)
	got, err := repo.ListChallenges(context.Background())
	if err != nil {
		t.Fatalf("ListChallenges() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty catalog, got %d", len(got))
	}
}
