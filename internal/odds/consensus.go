package odds

import (
	"math"
	"time"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/models"
)

// Outcome names used when a feed labels sides generically
const (
	outcomeHome = "Home"
	outcomeAway = "Away"
	outcomeDraw = "Draw"
)

// PickQuote reduces one bookmaker block to its head-to-head prices. ok is false
// when the block has no h2h market. Missing outcomes stay nil.
func PickQuote(b datasource.Bookmaker, homeTeam, awayTeam string, now time.Time) (models.BookmakerQuote, bool) {
	market, ok := b.Market(datasource.MarketH2H)
	if !ok {
		return models.BookmakerQuote{}, false
	}

	last := now
	if b.LastUpdate != nil {
		last = *b.LastUpdate
	}

	return models.BookmakerQuote{
		Bookmaker:  b.Key,
		LastUpdate: last,
		Home:       price(market, homeTeam, outcomeHome),
		Away:       price(market, awayTeam, outcomeAway),
		Draw:       price(market, outcomeDraw),
	}, true
}

// Normalize maps every bookmaker block through PickQuote in provider order,
// dropping blocks without a head-to-head market.
func Normalize(ev datasource.OddsEvent, now time.Time) []models.BookmakerQuote {
	quotes := make([]models.BookmakerQuote, 0, len(ev.Bookmakers))
	for _, b := range ev.Bookmakers {
		if q, ok := PickQuote(b, ev.HomeTeam, ev.AwayTeam, now); ok {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// ExtractConsensusMoneyline picks the event's moneyline. A preferred bookmaker
// quoting both sides wins outright. Otherwise each side is the median of every
// quote for that side, so the pair may come from different bookmakers.
// ok is false when either side has no quotes.
func ExtractConsensusMoneyline(ev datasource.OddsEvent, preferredBookmaker string) (models.Moneyline, bool) {
	if len(ev.Bookmakers) == 0 {
		return models.Moneyline{}, false
	}

	if preferredBookmaker != "" {
		for _, b := range ev.Bookmakers {
			if b.Key != preferredBookmaker {
				continue
			}
			if ml, ok := teamPrices(b, ev.HomeTeam, ev.AwayTeam); ok {
				return ml, true
			}
			break
		}
	}

	var homePrices, awayPrices []float64
	for _, b := range ev.Bookmakers {
		market, ok := b.Market(datasource.MarketH2H)
		if !ok {
			continue
		}
		if o, ok := market.Outcome(ev.HomeTeam); ok && o.Price != nil {
			homePrices = append(homePrices, *o.Price)
		}
		if o, ok := market.Outcome(ev.AwayTeam); ok && o.Price != nil {
			awayPrices = append(awayPrices, *o.Price)
		}
	}
	if len(homePrices) == 0 || len(awayPrices) == 0 {
		return models.Moneyline{}, false
	}

	return models.Moneyline{
		Home: RoundHalfUp(Median(homePrices)),
		Away: RoundHalfUp(Median(awayPrices)),
	}, true
}

func teamPrices(b datasource.Bookmaker, homeTeam, awayTeam string) (models.Moneyline, bool) {
	market, ok := b.Market(datasource.MarketH2H)
	if !ok {
		return models.Moneyline{}, false
	}
	home, hok := market.Outcome(homeTeam)
	away, aok := market.Outcome(awayTeam)
	if !hok || !aok || home.Price == nil || away.Price == nil {
		return models.Moneyline{}, false
	}
	return models.Moneyline{Home: QuotedPrice(*home.Price), Away: QuotedPrice(*away.Price)}, true
}

// QuotedPrice stores a single bookmaker's price as quoted. American prices are
// whole numbers and pass through unchanged; a fractional quote is rounded to
// the nearest integer with halves away from zero, keeping its magnitude. The
// half-up rule in RoundHalfUp applies only to consensus medians.
func QuotedPrice(x float64) int {
	if x == math.Trunc(x) {
		return int(x)
	}
	return int(math.Round(x))
}

// price returns the first named outcome's price as an integer moneyline
func price(m datasource.Market, names ...string) *int {
	for _, name := range names {
		if name == "" {
			continue
		}
		if o, ok := m.Outcome(name); ok && o.Price != nil {
			v := QuotedPrice(*o.Price)
			return &v
		}
	}
	return nil
}
