// internal/encourage/encourage.go
//
// Pet companion messages shown next to progression feedback.
// Selection is random but driven by an injected seedable source, so a fixed
// seed always yields the same messages.

package encourage

import (
	"math/rand/v2"
	"sync"

	"github.com/robalobadob/linguapet/internal/game"
)

var (
	correctMsgs = []string{
		"Amazing work! Your pet is so proud! 🌟",
		"Fantastic! You're getting stronger! 💪",
		"Brilliant! Your pet is doing a happy dance! 🎉",
		"Outstanding! You're a language champion! 👑",
	}
	incorrectMsgs = []string{
		"It's okay! Your pet believes in you! 💕",
		"No worries! Learning takes practice! 🌱",
		"Keep trying! Your pet is cheering for you! 📣",
		"Everyone makes mistakes! You've got this! 💪",
	}
	gameOverMsgs = []string{
		"🎉 Fantastic game! Your pet earned new treats! 🍯",
		"What a game! Your pet wants to play again soon! 🐾",
	}
	levelUpMsgs = []string{
		"Level up! Your pet is bouncing with joy! 🚀",
		"New level unlocked! You're on fire! 🔥",
	}
	levelDownMsgs = []string{
		"Let's take it a bit easier. Your pet is right here with you! 🤗",
		"A gentler level to warm up. You've got this! 🌈",
	}
)

// Picker chooses messages. Safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Picker drawing from src.
func New(src rand.Source) *Picker {
	return &Picker{rnd: rand.New(src)}
}

// NewSeeded returns a Picker with a PCG source seeded with seed.
func NewSeeded(seed uint64) *Picker {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// For returns a message reacting to ev, or "" for events without one.
// When a batch contains GameOver, callers should pass that event.
func (p *Picker) For(ev game.Event) string {
	switch e := ev.(type) {
	case game.Correct:
		return p.pick(correctMsgs)
	case game.Incorrect:
		return p.pick(incorrectMsgs)
	case game.GameOver:
		return p.pick(gameOverMsgs)
	case game.LevelChanged:
		if e.Up() {
			return p.pick(levelUpMsgs)
		}
		if e.To < e.From {
			return p.pick(levelDownMsgs)
		}
	}
	return ""
}

// ForBatch reacts to the most significant event of a transition: the last one.
func (p *Picker) ForBatch(events []game.Event) string {
	if len(events) == 0 {
		return ""
	}
	return p.For(events[len(events)-1])
}

func (p *Picker) pick(msgs []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return msgs[p.rnd.IntN(len(msgs))]
}
