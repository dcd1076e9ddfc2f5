package fx

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/logger"
)

// StaticProvider serves rates from a fixed table keyed "FROM/TO". Pairs it
// does not know convert at rate 1.0 with a warning, so a label running
// without an FX endpoint still gets statements, just unconverted ones.
type StaticProvider struct {
	rates map[string]decimal.Decimal
}

func NewStaticProvider(rates map[string]decimal.Decimal) *StaticProvider {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for pair, rate := range rates {
		normalized[strings.ToUpper(pair)] = rate
	}
	return &StaticProvider{rates: normalized}
}

func (p *StaticProvider) GetRate(_ context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	if rate, ok := p.rates[from+"/"+to]; ok {
		return rate, nil
	}
	logger.L.Warn("FX conversion requested with no configured rate, using fallback rate 1.0",
		"from", from, "to", to, "date", on.Format("2006-01-02"))
	return one, nil
}
