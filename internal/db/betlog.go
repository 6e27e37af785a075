package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// BetlogDB defines the read operations over the imported bet log
type BetlogDB interface {
	Ping(ctx context.Context) error
	GetBets(ctx context.Context, filters models.BetFilters) ([]models.Bet, error)
	GetStats(ctx context.Context, filters models.BetFilters) (*models.Stats, error)
	GetTournaments(ctx context.Context, season string) ([]string, error)
	GetSeasonData(ctx context.Context, season string) (*models.SeasonData, error)
}

// BetlogPostgres implements BetlogDB for PostgreSQL.
// Dates, months and times of day are evaluated in loc.
type BetlogPostgres struct {
	db  *sql.DB
	loc *time.Location
}

// NewBetlogPostgres opens the bet log database and checks connectivity
func NewBetlogPostgres(cfg config.DBConfig, loc *time.Location) (*BetlogPostgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewBetlogPostgresFromDB(db, loc), nil
}

// NewBetlogPostgresFromDB wraps an open connection pool
func NewBetlogPostgresFromDB(db *sql.DB, loc *time.Location) *BetlogPostgres {
	if loc == nil {
		loc = time.UTC
	}
	return &BetlogPostgres{db: db, loc: loc}
}

// Ping checks database connectivity
func (b *BetlogPostgres) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// GetBets retrieves bets matching filters, newest first
func (b *BetlogPostgres) GetBets(ctx context.Context, filters models.BetFilters) ([]models.Bet, error) {
	if FiltersConflict(filters) {
		return []models.Bet{}, nil
	}

	qb := newQueryBuilder(b.loc.String())
	qb.apply(filters)

	query := `
		SELECT
			b.id, b.placed_at, b.team1, b.team2, b.tournament, b.bet_type,
			b.total_value, b.game_score, b.result, b.profit, b.nominal, b.bank,
			b.is_premium, b.screenshot, b.created_at, b.updated_at
		FROM bets b` + qb.where + `
		ORDER BY b.placed_at DESC NULLS LAST, b.id DESC`

	rows, err := b.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	bets := []models.Bet{}
	for rows.Next() {
		var (
			bet                  models.Bet
			placedAt             *time.Time
			createdAt, updatedAt time.Time
		)

		err := rows.Scan(
			&bet.ID, &placedAt, &bet.Team1, &bet.Team2, &bet.Tournament, &bet.BetType,
			&bet.TotalValue, &bet.GameScore, &bet.Result, &bet.Profit, &bet.Nominal, &bet.Bank,
			&bet.IsPremium, &bet.Screenshot, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}

		if placedAt != nil {
			date := placedAt.UTC().Format(time.RFC3339)
			bet.Date = &date
		}
		bet.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		bet.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}

	return bets, nil
}

// GetStats retrieves aggregate performance for bets matching filters.
// Conflicting filters yield zeroed stats with FilterConflict set.
func (b *BetlogPostgres) GetStats(ctx context.Context, filters models.BetFilters) (*models.Stats, error) {
	if FiltersConflict(filters) {
		winRate := 0.0
		return &models.Stats{
			WinRate:        &winRate,
			CurrentNominal: models.DefaultNominal,
			Periods:        []models.Period{},
			FilterConflict: true,
		}, nil
	}

	qb := newQueryBuilder(b.loc.String())
	qb.apply(filters)

	query := `
		SELECT
			COUNT(*) AS total_bets,
			COALESCE(SUM(CASE WHEN UPPER(b.result) = 'WIN' THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN UPPER(b.result) = 'LOSE' THEN 1 ELSE 0 END), 0) AS losses,
			COALESCE(SUM(b.profit), 0) AS total_profit,
			COALESCE(SUM(b.nominal), 0) AS total_staked
		FROM bets b` + qb.where

	stats := &models.Stats{Periods: []models.Period{}}

	err := b.db.QueryRowContext(ctx, query, qb.args...).Scan(
		&stats.TotalBets,
		&stats.Wins,
		&stats.Losses,
		&stats.TotalProfit,
		&stats.TotalStaked,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	// Calculate derived metrics
	if stats.TotalStaked > 0 {
		stats.ROI = decimal.NewFromFloat(stats.TotalProfit).
			Div(decimal.NewFromFloat(stats.TotalStaked)).
			Mul(decimal.NewFromInt(100)).
			Round(2).InexactFloat64()
	}
	winRate := 0.0
	if settled := stats.Wins + stats.Losses; settled > 0 {
		winRate = decimal.NewFromInt(int64(stats.Wins)).
			Div(decimal.NewFromInt(int64(settled))).
			Mul(decimal.NewFromInt(100)).
			Round(2).InexactFloat64()
	}
	stats.WinRate = &winRate

	stats.CurrentNominal, stats.CurrentBank, err = b.getCurrentStake(ctx, qb)
	if err != nil {
		return nil, fmt.Errorf("get current stake: %w", err)
	}

	stats.Periods, err = b.getPeriods(ctx, qb)
	if err != nil {
		return nil, fmt.Errorf("get periods: %w", err)
	}

	return stats, nil
}

// getCurrentStake returns the nominal and the bank after the latest bet
func (b *BetlogPostgres) getCurrentStake(ctx context.Context, qb *queryBuilder) (float64, *float64, error) {
	query := `
		SELECT b.nominal, b.bank, b.profit
		FROM bets b` + qb.where + `
		ORDER BY b.placed_at DESC NULLS LAST, b.id DESC
		LIMIT 1`

	var nominal, bank, profit *float64
	err := b.db.QueryRowContext(ctx, query, qb.args...).Scan(&nominal, &bank, &profit)
	if err == sql.ErrNoRows {
		current := models.DefaultBankroll
		return models.DefaultNominal, &current, nil
	}
	if err != nil {
		return 0, nil, err
	}

	currentNominal := models.DefaultNominal
	if nominal != nil {
		currentNominal = *nominal
	}

	if bank == nil {
		return currentNominal, nil, nil
	}
	current := decimal.NewFromFloat(*bank)
	if profit != nil {
		current = current.Add(decimal.NewFromFloat(*profit))
	}
	currentBank := current.InexactFloat64()
	return currentNominal, &currentBank, nil
}

func (b *BetlogPostgres) getPeriods(ctx context.Context, qb *queryBuilder) ([]models.Period, error) {
	query := `
		SELECT b.placed_at, b.nominal, b.bank, b.result, b.profit
		FROM bets b` + qb.where + ` AND b.placed_at IS NOT NULL
		ORDER BY b.placed_at ASC, b.id ASC`

	rows, err := b.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []periodBet
	for rows.Next() {
		var pb periodBet
		if err := rows.Scan(&pb.placedAt, &pb.nominal, &pb.bank, &pb.result, &pb.profit); err != nil {
			return nil, err
		}
		bets = append(bets, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildPeriods(bets, b.loc), nil
}

// GetTournaments lists the distinct tournaments of a season, or of every
// season when season is empty
func (b *BetlogPostgres) GetTournaments(ctx context.Context, season string) ([]string, error) {
	qb := newQueryBuilder(b.loc.String())
	qb.apply(models.BetFilters{Season: season})

	query := `
		SELECT DISTINCT b.tournament
		FROM bets b` + qb.where + ` AND b.tournament IS NOT NULL AND b.tournament <> ''
		ORDER BY b.tournament`

	rows, err := b.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, fmt.Errorf("query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		tournaments = append(tournaments, name)
	}

	return tournaments, rows.Err()
}

// GetSeasonData returns the tournaments, date bounds and months of a season
func (b *BetlogPostgres) GetSeasonData(ctx context.Context, season string) (*models.SeasonData, error) {
	tournaments, err := b.GetTournaments(ctx, season)
	if err != nil {
		return nil, err
	}

	data := &models.SeasonData{
		Season:      season,
		Tournaments: tournaments,
		Months:      []models.MonthOption{},
	}

	qb := newQueryBuilder(b.loc.String())
	qb.apply(models.BetFilters{Season: season})
	local := qb.local()

	boundsQuery := fmt.Sprintf(`
		SELECT MIN(%[1]s::date), MAX(%[1]s::date)
		FROM bets b`, local) + qb.where

	var minDate, maxDate sql.NullTime
	if err := b.db.QueryRowContext(ctx, boundsQuery, qb.args...).Scan(&minDate, &maxDate); err != nil {
		return nil, fmt.Errorf("query date bounds: %w", err)
	}
	if minDate.Valid {
		s := minDate.Time.Format("2006-01-02")
		data.DateRange.Min = &s
	}
	if maxDate.Valid {
		s := maxDate.Time.Format("2006-01-02")
		data.DateRange.Max = &s
	}

	monthsQuery := fmt.Sprintf(`
		SELECT DISTINCT to_char(%s, 'YYYY-MM') AS month
		FROM bets b`, local) + qb.where + ` AND b.placed_at IS NOT NULL
		ORDER BY month`

	rows, err := b.db.QueryContext(ctx, monthsQuery, qb.args...)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		data.Months = append(data.Months, models.MonthOption{Value: month, Label: monthLabel(month)})
	}

	return data, rows.Err()
}

// Close closes the database connection
func (b *BetlogPostgres) Close() error {
	return b.db.Close()
}

// queryBuilder accumulates WHERE clauses and their positional arguments.
// The display timezone is bound once, on first use.
type queryBuilder struct {
	where string
	args  []interface{}
	tz    string
	tzPos int
}

func newQueryBuilder(tz string) *queryBuilder {
	return &queryBuilder{where: " WHERE 1=1", tz: tz}
}

func (q *queryBuilder) bind(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// local returns the bet timestamp expressed in the display timezone
func (q *queryBuilder) local() string {
	if q.tzPos == 0 {
		q.args = append(q.args, q.tz)
		q.tzPos = len(q.args)
	}
	return fmt.Sprintf("(b.placed_at AT TIME ZONE $%d)", q.tzPos)
}

func (q *queryBuilder) and(clause string) {
	q.where += " AND " + clause
}

func (q *queryBuilder) apply(f models.BetFilters) {
	if f.Season != "" {
		q.and("b.season = " + q.bind(f.Season))
	}

	if len(f.Tournaments) > 0 {
		q.and(fmt.Sprintf("b.tournament = ANY(%s)", q.bind(pq.Array(f.Tournaments))))
	}

	if f.StartDate != "" {
		q.and(fmt.Sprintf("%s::date >= %s::date", q.local(), q.bind(f.StartDate)))
	}

	if f.EndDate != "" {
		q.and(fmt.Sprintf("%s::date <= %s::date", q.local(), q.bind(f.EndDate)))
	}

	if f.Month != "" {
		q.and(fmt.Sprintf("to_char(%s, 'YYYY-MM') = %s", q.local(), q.bind(f.Month)))
	}

	switch {
	case f.StartTime != "" && f.EndTime != "":
		local := q.local()
		start, end := q.bind(f.StartTime), q.bind(f.EndTime)
		if f.StartTime <= f.EndTime {
			q.and(fmt.Sprintf("%s::time BETWEEN %s::time AND %s::time", local, start, end))
		} else {
			// window wraps midnight
			q.and(fmt.Sprintf("(%[1]s::time >= %[2]s::time OR %[1]s::time <= %[3]s::time)", local, start, end))
		}
	case f.StartTime != "":
		q.and(fmt.Sprintf("%s::time >= %s::time", q.local(), q.bind(f.StartTime)))
	case f.EndTime != "":
		q.and(fmt.Sprintf("%s::time <= %s::time", q.local(), q.bind(f.EndTime)))
	}

	if f.BetType != "" {
		q.and("UPPER(b.bet_type) = " + q.bind(f.BetType))
	}

	if f.Result != "" {
		q.and("UPPER(b.result) = " + q.bind(f.Result))
	}

	if f.IsPremium != nil {
		q.and("b.is_premium = " + q.bind(*f.IsPremium))
	}
}

func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}
