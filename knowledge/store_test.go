package knowledge

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreReplies(t *testing.T) {
	req := require.New(t)
	store, err := NewStore(slog.Default())
	req.NoError(err)

	req.True(store.HasReply("TRACK_EXPENSE"))
	req.False(store.HasReply("COMPLEX_ADVICE"))
	req.False(store.HasReply("GARBAGE"))

	// Random variant selection must always land inside the known set.
	variants := map[string]bool{
		"Got it, I'll track that 🐻":                           true,
		"Logged! Your ledger is up to date.":                  true,
		"Done, expense recorded. Keep those receipts coming!": true,
	}
	for i := 0; i < 20; i++ {
		reply, ok := store.Reply("TRACK_EXPENSE")
		req.True(ok)
		req.True(variants[reply], "unexpected variant %q", reply)
	}

	_, ok := store.Reply("NOT_AN_INTENT")
	req.False(ok)
}

func TestStoreAppManual(t *testing.T) {
	req := require.New(t)
	store, err := NewStore(slog.Default())
	req.NoError(err)

	manual := store.AppManual()
	req.Contains(manual, "HELP_ADD_INCOME")
	req.Contains(manual, "NAV_DASHBOARD")
	req.Contains(manual, "DEF_NEEDS")
	req.NotContains(manual, "GREETING")
}

func TestStoreDosmFallback(t *testing.T) {
	req := require.New(t)
	store, err := NewStore(slog.Default())
	req.NoError(err)

	req.Contains(store.DosmData("Selangor"), "Selangor")
	req.Contains(store.DosmData("Atlantis"), "National")
}

func TestTipsIndex(t *testing.T) {
	req := require.New(t)
	tips, err := NewTipsIndex(slog.Default())
	req.NoError(err)
	defer tips.Close()

	found, err := tips.RelevantTips(context.Background(), "how do i pay off my credit card debt")
	req.NoError(err)
	req.NotEmpty(found)
	req.LessOrEqual(len(found), 3)
	req.Equal("Paying off credit card debt", found[0].Topic)
}

func TestTipsIndexNoMatch(t *testing.T) {
	req := require.New(t)
	tips, err := NewTipsIndex(slog.Default())
	req.NoError(err)
	defer tips.Close()

	found, err := tips.RelevantTips(context.Background(), "zzz qqq xxx")
	req.NoError(err)
	req.Empty(found)
}
