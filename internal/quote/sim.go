package quote

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

// Simulator is a self-contained quote source: every symbol gets a
// deterministic base price derived from its name and a random walk
// from there. It never fails, which makes it the default for local
// development and tests.
type Simulator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	state map[string]*simState
}

type simState struct {
	open   float64
	price  float64
	high   float64
	low    float64
	volume int64
}

var _ Source = (*Simulator)(nil)

// NewSimulator creates a Simulator. The same seed replays the same
// walk.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:   rand.New(rand.NewSource(seed)),
		state: make(map[string]*simState),
	}
}

// Quote returns the next simulated quote for symbol.
func (s *Simulator) Quote(_ context.Context, symbol string) (model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[symbol]
	if !ok {
		base := basePrice(symbol)
		st = &simState{open: base, price: base, high: base, low: base}
		s.state[symbol] = st
	}

	// Walk up to ±0.5% per step.
	st.price *= 1 + (s.rng.Float64()-0.5)/100
	if st.price < 0.01 {
		st.price = 0.01
	}
	if st.price > st.high {
		st.high = st.price
	}
	if st.price < st.low {
		st.low = st.price
	}
	st.volume += int64(s.rng.Intn(10_000))

	changePct := 0.0
	if st.open > 0 {
		changePct = (st.price - st.open) / st.open * 100
	}

	return model.Quote{
		Symbol:        symbol,
		Price:         round2(st.price),
		ChangePercent: round2(changePct),
		Volume:        st.volume,
		High:          round2(st.high),
		Low:           round2(st.low),
		Open:          round2(st.open),
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

// basePrice maps a symbol to a stable starting price in [20, 520).
func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 20 + float64(h.Sum32()%50_000)/100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
