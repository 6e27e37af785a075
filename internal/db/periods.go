package db

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

type periodBet struct {
	placedAt time.Time
	nominal  *float64
	bank     *float64
	result   *string
	profit   *float64
}

// buildPeriods groups bets (ascending by time) into runs of equal nominal.
// Dates are calendar dates in loc.
func buildPeriods(bets []periodBet, loc *time.Location) []models.Period {
	periods := []models.Period{}

	var (
		current        *models.Period
		profit, staked decimal.Decimal
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Profit = profit.InexactFloat64()
		current.Staked = staked.InexactFloat64()
		periods = append(periods, *current)
	}

	for _, bet := range bets {
		nominal := models.DefaultNominal
		if bet.nominal != nil {
			nominal = *bet.nominal
		}
		day := bet.placedAt.In(loc)

		if current == nil || current.Nominal != nominal {
			flush()
			current = &models.Period{
				Start:   day.Format("2006-01-02"),
				Month:   day.Format("2006-01"),
				Nominal: nominal,
			}
			if bet.bank != nil {
				current.Bank = *bet.bank
			}
			profit, staked = decimal.Zero, decimal.Zero
		}

		current.End = day.Format("2006-01-02")
		current.Bets++
		if bet.result != nil {
			switch strings.ToUpper(*bet.result) {
			case "WIN":
				current.Wins++
			case "LOSE":
				current.Losses++
			}
		}
		if bet.profit != nil {
			profit = profit.Add(decimal.NewFromFloat(*bet.profit))
		}
		staked = staked.Add(decimal.NewFromFloat(nominal))
	}
	flush()

	return periods
}

// FiltersConflict reports whether a month and a date range are both set and
// the month's calendar window does not intersect the range. A missing range
// bound is open.
func FiltersConflict(f models.BetFilters) bool {
	if f.Month == "" || (f.StartDate == "" && f.EndDate == "") {
		return false
	}

	monthStart, err := time.Parse("2006-01", f.Month)
	if err != nil {
		return false
	}
	monthEnd := monthStart.AddDate(0, 1, -1)

	if f.StartDate != "" {
		if start, err := time.Parse("2006-01-02", f.StartDate); err == nil && start.After(monthEnd) {
			return true
		}
	}
	if f.EndDate != "" {
		if end, err := time.Parse("2006-01-02", f.EndDate); err == nil && end.Before(monthStart) {
			return true
		}
	}
	return false
}
