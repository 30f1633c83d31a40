package models

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// OptionContract is a single listed option at one (strike, expiration).
// Optional fields use pointers: nil means the provider did not report them.
type OptionContract struct {
	Strike       float64    `json:"strike"`
	Expiration   string     `json:"expiration"` // YYYY-MM-DD
	Type         OptionType `json:"option_type"`
	OpenInterest int64      `json:"open_interest"`
	Volume       int64      `json:"volume"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	LastPrice    *float64   `json:"last_price,omitempty"`
	IV           *float64   `json:"implied_volatility,omitempty"`
	Gamma        *float64   `json:"gamma,omitempty"`
}

// OptionChain is a snapshot of all fetched contracts for one underlying,
// possibly spanning several expirations.
type OptionChain struct {
	Symbol      string           `json:"symbol"`
	SpotPrice   float64          `json:"spot_price"`
	Expirations []string         `json:"expirations"`
	Contracts   []OptionContract `json:"contracts"`
	FetchedAt   time.Time        `json:"fetched_at"`
}

// Calls returns the call contracts of the chain.
func (oc *OptionChain) Calls() []OptionContract {
	return oc.filter(Call)
}

// Puts returns the put contracts of the chain.
func (oc *OptionChain) Puts() []OptionContract {
	return oc.filter(Put)
}

func (oc *OptionChain) filter(t OptionType) []OptionContract {
	var out []OptionContract
	for _, c := range oc.Contracts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// MidPrice returns the bid/ask midpoint.
func (c OptionContract) MidPrice() float64 {
	return (c.Bid + c.Ask) / 2
}

// EffectivePrice returns the last traded price, falling back to the
// bid/ask midpoint when the provider did not report a last price.
func (c OptionContract) EffectivePrice() float64 {
	if c.LastPrice != nil {
		return *c.LastPrice
	}
	return c.MidPrice()
}
