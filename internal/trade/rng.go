package trade

import (
	"strings"

	"github.com/dgryski/go-wyhash"
	"pgregory.net/rand"
)

// adjectives is a list of common adjectives
var adjectives = []string{
	"able", "bad", "best", "better", "big", "black", "certain", "clear", "different", "early",
	"easy", "economic", "federal", "free", "full", "good", "great", "hard", "high", "human",
	"important", "international", "large", "late", "little", "local", "long", "low", "major",
	"national", "new", "old", "only", "other", "possible", "public", "real", "recent", "right",
	"small", "social", "special", "strong", "sure", "true", "white", "whole", "young",
}

// nouns is a list of market-flavored nouns
var nouns = []string{
	"account", "ask", "asset", "basket", "bid", "block", "bond", "book", "broker", "bucket",
	"call", "cap", "clerk", "coupon", "cross", "desk", "dividend", "equity", "fill", "floor",
	"fund", "future", "gap", "hedge", "index", "ledger", "lot", "margin", "market", "note",
	"option", "order", "pit", "pool", "position", "put", "quote", "rally", "share", "spread",
	"stock", "strike", "swap", "tape", "tick", "trader", "venue", "warrant", "yield",
}

// Rng wraps a pgregory.net/rand source. A non-empty seed string is hashed
// into the source so the same seed always produces the same stream.
// Rng is not safe for concurrent use.
type Rng struct {
	rng *rand.Rand
}

func NewRng(seed string) Rng {
	if seed == "" {
		return Rng{rand.New()}
	}
	return Rng{rand.New(wyhash.Hash([]byte(seed), 2467825690))}
}

func (r Rng) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns an int in [min, max], both ends included.
func (r Rng) IntRange(min, max int) int {
	return min + r.rng.Intn(max-min+1)
}

// Float returns a float64 in [min, max).
func (r Rng) Float(min, max float64) float64 {
	return r.rng.Float64()*(max-min) + min
}

func (r Rng) Gaussian(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

func (r Rng) GaussianInt(mean, stddev float64) int64 {
	return int64(r.Gaussian(mean, stddev))
}

func (r Rng) Choice(a []string) string {
	return a[r.Intn(len(a))]
}

func (r Rng) BoolWithProb(p int) bool {
	return r.Intn(100) < p
}

func (r Rng) String(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte("abcdefghijklmnopqrstuvwxyz"[r.Intn(26)])
	}
	return b.String()
}

func (r Rng) HexString(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte("0123456789abcdef"[r.Intn(16)])
	}
	return b.String()
}

func (r Rng) WordPair() string {
	return r.Choice(adjectives) + "-" + r.Choice(nouns)
}
