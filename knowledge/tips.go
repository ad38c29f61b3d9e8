package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"

	"beruang/domain"
)

const maxRelevantTips = 3

// TipsIndex is a full-text index over the expert tips, queried per request
// to enrich remote prompts. The index is built once at startup and only
// read afterwards.
type TipsIndex struct {
	log    *slog.Logger
	writer *bluge.Writer
}

// NewTipsIndex loads the embedded tips file and indexes topic and advice
// fields in memory.
func NewTipsIndex(log *slog.Logger) (*TipsIndex, error) {
	raw, err := dataFolder.ReadFile("data/expert_tips.json")
	if err != nil {
		return nil, fmt.Errorf("reading expert tips: %w", err)
	}
	var tips []domain.Tip
	if err := json.Unmarshal(raw, &tips); err != nil {
		return nil, fmt.Errorf("parsing expert tips: %w", err)
	}

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("opening tips index: %w", err)
	}

	for i, tip := range tips {
		payload, err := json.Marshal(tip)
		if err != nil {
			return nil, fmt.Errorf("encoding tip %d: %w", i, err)
		}
		doc := bluge.NewDocument(fmt.Sprintf("tip-%d", i)).
			AddField(bluge.NewTextField("topic", tip.Topic)).
			AddField(bluge.NewTextField("advice", tip.Advice)).
			AddField(bluge.NewStoredOnlyField("payload", payload))
		if err := writer.Update(doc.ID(), doc); err != nil {
			return nil, fmt.Errorf("indexing tip %d: %w", i, err)
		}
	}

	log.Info("Expert tips indexed", "count", len(tips))
	return &TipsIndex{log: log, writer: writer}, nil
}

// RelevantTips returns up to three tips matching the message, best first.
// An empty result is normal; errors are reserved for index failures.
func (t *TipsIndex) RelevantTips(ctx context.Context, message string) ([]domain.Tip, error) {
	reader, err := t.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening tips reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(message).SetField("topic")).
		AddShould(bluge.NewMatchQuery(message).SetField("advice"))

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(maxRelevantTips, query))
	if err != nil {
		return nil, fmt.Errorf("searching tips: %w", err)
	}

	var tips []domain.Tip
	match, err := iter.Next()
	for err == nil && match != nil {
		var tip domain.Tip
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "payload" {
				if err := json.Unmarshal(value, &tip); err != nil {
					t.log.Warn("Skipping undecodable tip", "err", err)
					return false
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, fmt.Errorf("reading tip fields: %w", visitErr)
		}
		if tip.Topic != "" {
			tips = append(tips, tip)
		}
		match, err = iter.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterating tips: %w", err)
	}
	return tips, nil
}

// Close releases the underlying index.
func (t *TipsIndex) Close() error {
	return t.writer.Close()
}
