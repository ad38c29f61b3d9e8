// Package knowledge loads the static data the pipeline consults: canned
// intent replies, the app manual, regional statistics and expert tips.
// Everything is read once at startup and immutable afterwards.
package knowledge

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/samber/lo"
)

//go:embed data/*.json
var dataFolder embed.FS

// intentEntry mirrors one entry of responses.json.
type intentEntry struct {
	Tag       string   `json:"tag"`
	Responses []string `json:"responses"`
}

type responsesFile struct {
	Intents []intentEntry `json:"intents"`
}

// Store serves pre-authored replies and the derived app manual context.
type Store struct {
	log       *slog.Logger
	responses map[string][]string
	appManual string
	dosm      map[string]string
}

// NewStore parses the embedded knowledge files. A malformed file is a
// startup failure.
func NewStore(log *slog.Logger) (*Store, error) {
	raw, err := dataFolder.ReadFile("data/responses.json")
	if err != nil {
		return nil, fmt.Errorf("reading responses: %w", err)
	}
	var file responsesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing responses: %w", err)
	}

	responses := make(map[string][]string, len(file.Intents))
	for _, intent := range file.Intents {
		responses[intent.Tag] = intent.Responses
	}

	// The app manual is rebuilt from the help-like intents so remote
	// prompts can explain app navigation without a second data file.
	manualLines := lo.FilterMap(file.Intents, func(intent intentEntry, _ int) (string, bool) {
		helpLike := strings.HasPrefix(intent.Tag, "HELP_") ||
			strings.HasPrefix(intent.Tag, "NAV_") ||
			strings.HasPrefix(intent.Tag, "DEF_")
		if !helpLike || len(intent.Responses) == 0 {
			return "", false
		}
		return fmt.Sprintf("- Topic: %s\n  Info: %s", intent.Tag, intent.Responses[0]), true
	})

	dosm, err := loadDosm()
	if err != nil {
		return nil, err
	}

	log.Info("Knowledge base loaded",
		"intents", len(responses),
		"manual_topics", len(manualLines),
		"dosm_states", len(dosm))

	return &Store{
		log:       log,
		responses: responses,
		appManual: strings.Join(manualLines, "\n"),
		dosm:      dosm,
	}, nil
}

// HasReply reports whether intent has a canned reply.
func (s *Store) HasReply(intent string) bool {
	return len(s.responses[intent]) > 0
}

// Reply picks one reply variant for intent, uniformly at random.
func (s *Store) Reply(intent string) (string, bool) {
	variants := s.responses[intent]
	if len(variants) == 0 {
		return "", false
	}
	return variants[rand.Intn(len(variants))], true
}

// AppManual returns the derived navigation manual for prompt assembly.
func (s *Store) AppManual() string {
	return s.appManual
}

// DosmData returns the statistics block for a state, falling back to the
// national aggregate.
func (s *Store) DosmData(state string) string {
	if data, ok := s.dosm[state]; ok {
		return data
	}
	return s.dosm["Nasional"]
}

func loadDosm() (map[string]string, error) {
	raw, err := dataFolder.ReadFile("data/dosm_data.json")
	if err != nil {
		return nil, fmt.Errorf("reading dosm data: %w", err)
	}
	dosm := make(map[string]string)
	if err := json.Unmarshal(raw, &dosm); err != nil {
		return nil, fmt.Errorf("parsing dosm data: %w", err)
	}
	return dosm, nil
}
