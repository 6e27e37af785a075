package models

import "time"

const (
	// DefaultBankroll is the bankroll shown before any real figure is known.
	DefaultBankroll = 2000.0
	// DefaultNominal is the stake size used when no bet has been recorded.
	DefaultNominal = 100.0
)

// Bet represents one imported bet log row
type Bet struct {
	ID         int64    `json:"id"`
	Date       *string  `json:"date"`
	Team1      *string  `json:"team1"`
	Team2      *string  `json:"team2"`
	Tournament *string  `json:"tournament"`
	BetType    *string  `json:"bet_type"`
	TotalValue *float64 `json:"total_value"`
	GameScore  *string  `json:"game_score"`
	Result     *string  `json:"result"`
	Profit     *float64 `json:"profit"`
	Nominal    *float64 `json:"nominal"`
	Bank       *float64 `json:"bank"`
	IsPremium  bool     `json:"is_premium"`
	Screenshot *string  `json:"screenshot"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// BetFilters defines filters for bet and stats queries.
// Empty fields are not applied.
type BetFilters struct {
	Season      string
	Tournaments []string
	StartDate   string // YYYY-MM-DD, inclusive
	EndDate     string // YYYY-MM-DD, inclusive
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Month       string // YYYY-MM
	BetType     string // OVER, UNDER
	Result      string // WIN, LOSE
	IsPremium   *bool
}

// Stats is the aggregate performance summary for a filtered bet set.
// WinRate and CurrentBank are optional on the wire.
type Stats struct {
	TotalBets      int      `json:"totalBets"`
	TotalProfit    float64  `json:"totalProfit"`
	TotalStaked    float64  `json:"totalStaked"`
	ROI            float64  `json:"roi"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	WinRate        *float64 `json:"winRate,omitempty"`
	CurrentNominal float64  `json:"currentNominal"`
	CurrentBank    *float64 `json:"currentBank,omitempty"`
	Periods        []Period `json:"periods"`
	FilterConflict bool     `json:"filterConflict"`
}

// EffectiveWinRate returns the supplied win rate, or wins/(wins+losses) as a percentage.
func (s Stats) EffectiveWinRate() float64 {
	if s.WinRate != nil {
		return *s.WinRate
	}
	settled := s.Wins + s.Losses
	if settled == 0 {
		return 0
	}
	return float64(s.Wins) / float64(settled) * 100
}

// EmptyStats returns the stats published when the source could not be read
func EmptyStats() Stats {
	bank := DefaultBankroll
	winRate := 0.0
	return Stats{
		CurrentNominal: DefaultNominal,
		CurrentBank:    &bank,
		WinRate:        &winRate,
		Periods:        []Period{},
	}
}

// Period is a contiguous span of bets placed at one nominal
type Period struct {
	Start   string  `json:"start"` // YYYY-MM-DD
	End     string  `json:"end"`   // YYYY-MM-DD
	Month   string  `json:"month"` // YYYY-MM
	Nominal float64 `json:"nominal"`
	Bank    float64 `json:"bank"` // bank at period start
	Bets    int     `json:"bets"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Profit  float64 `json:"profit"`
	Staked  float64 `json:"staked"`
}

// SeasonData describes the filter choices available for a season
type SeasonData struct {
	Season      string        `json:"season"`
	Tournaments []string      `json:"tournaments"`
	DateRange   DateBounds    `json:"dateRange"`
	Months      []MonthOption `json:"months"`
}

// DateBounds holds the first and last bet dates of a season (YYYY-MM-DD)
type DateBounds struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// MonthOption is a selectable month token with its label
type MonthOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SyncAck acknowledges a queued sync request
type SyncAck struct {
	Status      string    `json:"status"`
	RequestID   string    `json:"request_id"`
	Season      string    `json:"season,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// SyncRequested is published when a bet log import should run
type SyncRequested struct {
	RequestID string `json:"request_id"`
	Season    string `json:"season,omitempty"`
	Source    string `json:"source"` // manual, schedule
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
