package search

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"beruang/domain"
)

func TestIsLocationQuery(t *testing.T) {
	req := require.New(t)
	detector := NewDetector()

	tests := []struct {
		message string
		want    bool
	}{
		{"best makan near klcc", true},
		{"sedap punya restoran kat penang", true},
		{"recommend a cheap hotel in langkawi", true},
		{"mana ada kedai makan dekat sini", true},
		{"how much did i spend on lunch", false}, // keyword without indicator or recommendation
		{"track my expenses", false},
		{"got one around here, real?", true}, // indicator + verification, no keyword
	}
	for _, tt := range tests {
		req.Equal(tt.want, detector.IsLocationQuery(tt.message), tt.message)
	}
}

func TestAppendHalalFilter(t *testing.T) {
	req := require.New(t)

	req.Equal("best food in penang halal", AppendHalalFilter("best food in penang"))
	req.Equal("non-halal restaurant in kl", AppendHalalFilter("non-halal restaurant in kl"))
	req.Equal("cheap hotel in langkawi", AppendHalalFilter("cheap hotel in langkawi"))
}

func TestCacheRoundTrip(t *testing.T) {
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	req.NoError(err)
	defer db.Close()

	cache := NewCache(db, slog.Default())

	_, ok := cache.Get("makan near klcc halal")
	req.False(ok)

	stored := &domain.SearchResult{
		Answer:  "Try Jalan Alor.",
		Results: "1. Jalan Alor\n   Street food row\n   Source: https://example.com",
		Sources: []string{"https://example.com"},
	}
	cache.Set("makan near klcc halal", stored)

	got, ok := cache.Get("makan near klcc halal")
	req.True(ok)
	req.Equal(stored, got)
}

func TestSearchWithoutKeyIsDisabled(t *testing.T) {
	req := require.New(t)
	service := NewService(slog.Default(), "", nil)

	result, err := service.Search(t.Context(), "best makan near klcc")
	req.NoError(err)
	req.Nil(result)
}
