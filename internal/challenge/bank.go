// internal/challenge/bank.go
//
// Challenge bank: the built-in challenge provider.
//
// Responsibilities:
//   - Load challenges from YAML (embedded default, or a file named by CHALLENGES_FILE).
//   - Validate entries (known kind, answer present, options contain the answer,
//     sentence words rebuild the answer).
//   - Serve the next challenge for a game type and level.
//
// Selection:
//   1. Entries whose level equals the requested level.
//   2. Otherwise the highest level below it, otherwise the lowest level above it.
//   3. Avoid repeating ExcludeID when another entry is available.
//   4. Pick at random from an injected seedable source; sentence word banks are shuffled.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/linguapet/assets"
	"github.com/robalobadob/linguapet/internal/game"
)

// ErrNoChallenges is returned when the bank has nothing for a game type.
var ErrNoChallenges = errors.New("no challenges for game type")

// entry is one challenge as written in the bank file.
type entry struct {
	ID           string `yaml:"id"`
	Kind         string `yaml:"kind"`
	Level        int    `yaml:"level"`
	Answer       string `yaml:"answer"`
	game.Payload `yaml:",inline"`
}

type bankFile struct {
	Challenges []entry `yaml:"challenges"`
}

// Bank serves challenges from an in-memory set. Safe for concurrent use.
type Bank struct {
	mu     sync.Mutex // guards byKind and rnd
	byKind map[game.Kind][]game.Challenge
	rnd    *rand.Rand
}

// Parse decodes and validates a YAML challenge bank.
func Parse(data []byte, src rand.Source) (*Bank, error) {
	byKind, err := parse(data)
	if err != nil {
		return nil, err
	}
	return &Bank{byKind: byKind, rnd: rand.New(src)}, nil
}

// Reload replaces the bank's challenges with data. On error the current
// challenges are kept.
func (b *Bank) Reload(data []byte) error {
	byKind, err := parse(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.byKind = byKind
	b.mu.Unlock()
	return nil
}

func parse(data []byte) (map[game.Kind][]game.Challenge, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode challenge bank: %w", err)
	}
	byKind := make(map[game.Kind][]game.Challenge)
	seen := make(map[string]struct{}, len(f.Challenges))
	for i, e := range f.Challenges {
		c, err := e.challenge()
		if err != nil {
			return nil, fmt.Errorf("challenge #%d (%s): %w", i+1, e.ID, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("challenge #%d: duplicate id %q", i+1, c.ID)
		}
		seen[c.ID] = struct{}{}
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}
	if len(seen) == 0 {
		return nil, errors.New("challenge bank is empty")
	}
	return byKind, nil
}

// Load reads the bank at path, or the embedded default when path is empty.
func Load(path string, src rand.Source) (*Bank, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.Challenges()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read challenge bank: %w", err)
	}
	return Parse(data, src)
}

// challenge validates e and converts it.
func (e entry) challenge() (game.Challenge, error) {
	kind, err := game.ParseKind(e.Kind)
	if err != nil {
		return game.Challenge{}, err
	}
	if strings.TrimSpace(e.ID) == "" {
		return game.Challenge{}, errors.New("missing id")
	}
	if strings.TrimSpace(e.Answer) == "" {
		return game.Challenge{}, errors.New("missing answer")
	}
	level := e.Level
	if level < 1 {
		level = 1
	}
	switch kind {
	case game.KindVocabulary, game.KindStory:
		if !slices.Contains(e.Options, e.Answer) {
			return game.Challenge{}, errors.New("options do not contain the answer")
		}
		if kind == game.KindVocabulary && e.Word == "" {
			return game.Challenge{}, errors.New("missing word")
		}
		if kind == game.KindStory && e.StoryText == "" {
			return game.Challenge{}, errors.New("missing storyText")
		}
	case game.KindPronunciation:
		if e.Word == "" {
			return game.Challenge{}, errors.New("missing word")
		}
	case game.KindSentence:
		if e.Prompt == "" {
			return game.Challenge{}, errors.New("missing prompt")
		}
		if strings.Join(e.Words, " ") != strings.Join(strings.Fields(e.Answer), " ") {
			return game.Challenge{}, errors.New("words do not build the answer")
		}
	}
	return game.Challenge{
		ID:           e.ID,
		Kind:         kind,
		Level:        level,
		TargetAnswer: e.Answer,
		Payload:      e.Payload,
	}, nil
}

// Next implements Provider.
func (b *Bank) Next(ctx context.Context, req Request) (game.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return game.Challenge{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	pool := candidates(b.byKind[req.GameType], req.Level)
	if len(pool) == 0 {
		return game.Challenge{}, fmt.Errorf("%w %q", ErrNoChallenges, req.GameType)
	}
	if req.ExcludeID != "" && len(pool) > 1 {
		pool = slices.DeleteFunc(pool, func(c game.Challenge) bool { return c.ID == req.ExcludeID })
	}

	c := pool[b.rnd.IntN(len(pool))]
	if len(c.Payload.Words) > 1 {
		c.Payload.Words = slices.Clone(c.Payload.Words)
		b.rnd.Shuffle(len(c.Payload.Words), func(i, j int) {
			c.Payload.Words[i], c.Payload.Words[j] = c.Payload.Words[j], c.Payload.Words[i]
		})
	}

	c.Payload.Options = slices.Clone(c.Payload.Options)
	return c, nil
}

// ByKind returns the bank's challenges of kind, in file order.
func (b *Bank) ByKind(kind game.Kind) []game.Challenge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.byKind[kind])
}

// Stats returns the number of challenges per kind.
func (b *Bank) Stats() map[game.Kind]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[game.Kind]int, len(b.byKind))
	for k, v := range b.byKind {
		out[k] = len(v)
	}
	return out
}

// candidates narrows all to the tier closest to level (preferring easier tiers).
func candidates(all []game.Challenge, level int) []game.Challenge {
	if len(all) == 0 {
		return nil
	}
	tier, found := 0, false
	for _, c := range all {
		if c.Level <= level && c.Level > tier {
			tier, found = c.Level, true
		}
	}
	if !found {
		tier = all[0].Level
		for _, c := range all {
			tier = min(tier, c.Level)
		}
	}
	var out []game.Challenge
	for _, c := range all {
		if c.Level == tier {
			out = append(out, c)
		}
	}
	return out
}
