// Package trade builds the synthetic trade records that kafkaloadgen publishes.
package trade

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is ISO-8601 with microseconds and no zone suffix. The
// value is always UTC.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const (
	MinQuantity = 1
	MaxQuantity = 1000
	MinPrice    = 50.0
	MaxPrice    = 500.0
)

var (
	Symbols    = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "META", "NVDA"}
	TradeTypes = []string{"BUY", "SELL"}
)

var (
	accountPat = regexp.MustCompile(`^ACC\d{4}$`)
	tradePat   = regexp.MustCompile(`^TRD\d{6}$`)
)

// Trade is one synthetic trade. Extra holds user-defined fields that are
// merged into the JSON object next to the standard ones.
type Trade struct {
	AccountID string  `json:"account_id"`
	TradeID   string  `json:"trade_id"`
	Symbol    string  `json:"symbol"`
	TradeType string  `json:"trade_type"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`

	Extra map[string]any `json:"-"`
}

// plainTrade has the same fields as Trade but none of its methods, so it
// can be marshaled without recursing into Trade.MarshalJSON.
type plainTrade Trade

func (t Trade) MarshalJSON() ([]byte, error) {
	if len(t.Extra) == 0 {
		return json.Marshal(plainTrade(t))
	}
	m := make(map[string]any, len(t.Extra)+7)
	for k, v := range t.Extra {
		m[k] = v
	}
	m["account_id"] = t.AccountID
	m["trade_id"] = t.TradeID
	m["symbol"] = t.Symbol
	m["trade_type"] = t.TradeType
	m["quantity"] = t.Quantity
	m["price"] = t.Price
	m["timestamp"] = t.Timestamp
	return json.Marshal(m)
}

// Key is the partition key for the record.
func (t Trade) Key() []byte {
	return []byte(t.AccountID)
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %d %s for %s", t.TradeType, t.Quantity, t.Symbol, t.AccountID)
}

// Generator produces trades. Every field is sampled independently for every
// record; nothing is remembered between calls.
type Generator struct {
	rng    Rng
	fields map[string]func() any
	now    func() time.Time
}

// NewGenerator returns a generator seeded from seed (empty means random).
// userFields maps extra field names to constants or generator specs; see
// ParseFields.
func NewGenerator(seed string, userFields map[string]string) (*Generator, error) {
	rng := NewRng(seed)
	fields, err := ParseFields(rng, userFields)
	if err != nil {
		return nil, err
	}
	return &Generator{rng: rng, fields: fields, now: time.Now}, nil
}

func (g *Generator) Next() Trade {
	price := decimal.NewFromFloat(g.rng.Float(MinPrice, MaxPrice)).Round(2)
	t := Trade{
		AccountID: fmt.Sprintf("ACC%d", g.rng.IntRange(1000, 9999)),
		TradeID:   fmt.Sprintf("TRD%d", g.rng.IntRange(100000, 999999)),
		Symbol:    g.rng.Choice(Symbols),
		TradeType: g.rng.Choice(TradeTypes),
		Quantity:  g.rng.IntRange(MinQuantity, MaxQuantity),
		Price:     price.InexactFloat64(),
		Timestamp: g.now().UTC().Format(TimestampLayout),
	}
	if len(g.fields) > 0 {
		t.Extra = make(map[string]any, len(g.fields))
		for k, gen := range g.fields {
			t.Extra[k] = gen()
		}
	}
	return t
}

// Validate reports the first field of t that is outside the record's
// documented domain.
func Validate(t Trade) error {
	if !accountPat.MatchString(t.AccountID) {
		return fmt.Errorf("account_id %q does not match ACC####", t.AccountID)
	}
	if !tradePat.MatchString(t.TradeID) {
		return fmt.Errorf("trade_id %q does not match TRD######", t.TradeID)
	}
	if !contains(Symbols, t.Symbol) {
		return fmt.Errorf("unknown symbol %q", t.Symbol)
	}
	if !contains(TradeTypes, t.TradeType) {
		return fmt.Errorf("unknown trade_type %q", t.TradeType)
	}
	if t.Quantity < MinQuantity || t.Quantity > MaxQuantity {
		return fmt.Errorf("quantity %d out of range [%d, %d]", t.Quantity, MinQuantity, MaxQuantity)
	}
	if t.Price < MinPrice || t.Price > MaxPrice {
		return fmt.Errorf("price %v out of range [%v, %v]", t.Price, MinPrice, MaxPrice)
	}
	if cents := t.Price * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return fmt.Errorf("price %v has more than 2 decimal places", t.Price)
	}
	if _, err := time.Parse(TimestampLayout, t.Timestamp); err != nil {
		return fmt.Errorf("timestamp %q: %w", t.Timestamp, err)
	}
	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
