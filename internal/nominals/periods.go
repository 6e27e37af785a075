// Package nominals projects stake periods into the rows of the nominals table.
package nominals

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// Sign of a period's profit
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
)

// Row is one display row of the nominals table
type Row struct {
	Range      string  `json:"range"`
	Month      string  `json:"month"`
	Nominal    float64 `json:"nominal"`
	Bank       int64   `json:"bank"`
	Bets       int     `json:"bets"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Profit     string  `json:"profit"`
	ProfitSign Sign    `json:"profit_sign"`
}

// Project returns one row per period, in input order. Nothing is shown when
// the filters conflict or there are no periods.
func Project(periods []models.Period, conflict bool) []Row {
	if conflict || len(periods) == 0 {
		return nil
	}

	rows := make([]Row, 0, len(periods))
	for _, p := range periods {
		profit := decimal.NewFromFloat(p.Profit).Round(2)

		sign := SignPositive
		if profit.IsNegative() {
			sign = SignNegative
		}

		rows = append(rows, Row{
			Range:      FormatRange(p.Start, p.End),
			Month:      p.Month,
			Nominal:    p.Nominal,
			Bank:       decimal.NewFromFloat(p.Bank).Round(0).IntPart(),
			Bets:       p.Bets,
			Wins:       p.Wins,
			Losses:     p.Losses,
			Profit:     profit.StringFixed(2),
			ProfitSign: sign,
		})
	}
	return rows
}

// FormatRange renders two YYYY-MM-DD dates as a DD.MM.YYYY range
func FormatRange(start, end string) string {
	return formatDate(start) + " — " + formatDate(end)
}

func formatDate(s string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("02.01.2006")
}
