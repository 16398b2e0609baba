package odds

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/sports-sims/internal/models"
)

// TableRow is one bookmaker line with implied probabilities
type TableRow struct {
	Bookmaker   string           `json:"bookmaker"`
	Home        *int             `json:"homeML"`
	Away        *int             `json:"awayML"`
	Draw        *int             `json:"drawML"`
	ImpliedHome *decimal.Decimal `json:"impliedHome"`
	ImpliedAway *decimal.Decimal `json:"impliedAway"`
}

// BookmakerTable builds display rows; implied probabilities are rounded to 4 dp
// and stay nil when the price is unknown.
func BookmakerTable(quotes []models.BookmakerQuote) []TableRow {
	rows := make([]TableRow, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, TableRow{
			Bookmaker:   q.Bookmaker,
			Home:        q.Home,
			Away:        q.Away,
			Draw:        q.Draw,
			ImpliedHome: implied(q.Home),
			ImpliedAway: implied(q.Away),
		})
	}
	return rows
}

func implied(ml *int) *decimal.Decimal {
	if ml == nil {
		return nil
	}
	d := decimal.NewFromFloat(MoneylineToProb(float64(*ml))).Round(4)
	return &d
}
