package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// Query keys understood by the bet log source
const (
	KeySeason      = "season"
	KeyTournaments = "tournaments"
	KeyStartDate   = "start_date"
	KeyEndDate     = "end_date"
	KeyStartTime   = "start_time"
	KeyEndTime     = "end_time"
	KeyMonth       = "month"
	KeyBetType     = "bet_type"
	KeyIsPremium   = "is_premium"
	KeyResult      = "result"
)

// Query is a flat mapping of query keys to values. A key is present only
// when its criterion is actually applied, so it never holds an empty value.
type Query map[string]string

// Values converts q to url.Values
func (q Query) Values() url.Values {
	v := make(url.Values, len(q))
	for key, value := range q {
		v.Set(key, value)
	}
	return v
}

// Encode returns q in URL-encoded form, sorted by key
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Normalize builds the source query for f. known is the full tournament list
// of the season; a selection equal to it is the same as no selection.
// Malformed criteria are omitted.
func Normalize(f Filter, known []string) Query {
	q := Query{}

	set := func(key, value string) {
		if value != "" {
			q[key] = value
		}
	}

	if ParseSeason(string(f.Season)) != "" {
		set(KeySeason, string(f.Season))
	}

	if selected := cleanTournaments(f.Tournaments); len(selected) > 0 && !sameSet(selected, known) {
		set(KeyTournaments, strings.Join(selected, ","))
	}

	if IsDate(f.Dates.Start) {
		set(KeyStartDate, f.Dates.Start)
	}
	if IsDate(f.Dates.End) {
		set(KeyEndDate, f.Dates.End)
	}
	if IsClock(f.Times.Start) {
		set(KeyStartTime, f.Times.Start)
	}
	if IsClock(f.Times.End) {
		set(KeyEndTime, f.Times.End)
	}
	if IsMonth(f.Month) {
		set(KeyMonth, f.Month)
	}

	switch f.BetType {
	case BetTypeOver, BetTypeUnder:
		set(KeyBetType, string(f.BetType))
	}

	switch f.Result {
	case ResultWin, ResultLose:
		set(KeyResult, string(f.Result))
	}

	set(KeyIsPremium, f.Premium.String())

	return q
}

// FromValues parses a filter submission. Unknown or malformed values leave
// the corresponding criterion unset.
func FromValues(v url.Values) Filter {
	f := Filter{
		Season: ParseSeason(strings.TrimSpace(v.Get(KeySeason))),
		Month:  validOr(v.Get(KeyMonth), IsMonth),
		Dates: DateRange{
			Start: validOr(v.Get(KeyStartDate), IsDate),
			End:   validOr(v.Get(KeyEndDate), IsDate),
		},
		Times: TimeRange{
			Start: validOr(v.Get(KeyStartTime), IsClock),
			End:   validOr(v.Get(KeyEndTime), IsClock),
		},
	}

	if raw := v.Get(KeyTournaments); raw != "" {
		f.Tournaments = cleanTournaments(strings.Split(raw, ","))
	}

	switch BetType(strings.ToUpper(strings.TrimSpace(v.Get(KeyBetType)))) {
	case BetTypeOver:
		f.BetType = BetTypeOver
	case BetTypeUnder:
		f.BetType = BetTypeUnder
	}

	switch Result(strings.ToUpper(strings.TrimSpace(v.Get(KeyResult)))) {
	case ResultWin:
		f.Result = ResultWin
	case ResultLose:
		f.Result = ResultLose
	}

	if premium, err := strconv.ParseBool(strings.TrimSpace(v.Get(KeyIsPremium))); err == nil {
		if premium {
			f.Premium = PremiumIncluded
		} else {
			f.Premium = PremiumExcluded
		}
	}

	return f
}

func validOr(raw string, valid func(string) bool) string {
	raw = strings.TrimSpace(raw)
	if valid(raw) {
		return raw
	}
	return ""
}

// BetFilters converts f to store filters. The tournament selection is taken
// as given.
func (f Filter) BetFilters() models.BetFilters {
	bf := models.BetFilters{
		Season:      string(f.Season),
		Tournaments: cleanTournaments(f.Tournaments),
		StartDate:   f.Dates.Start,
		EndDate:     f.Dates.End,
		StartTime:   f.Times.Start,
		EndTime:     f.Times.End,
		Month:       f.Month,
		BetType:     string(f.BetType),
		Result:      string(f.Result),
	}
	if len(bf.Tournaments) == 0 {
		bf.Tournaments = nil
	}
	switch f.Premium {
	case PremiumIncluded:
		v := true
		bf.IsPremium = &v
	case PremiumExcluded:
		v := false
		bf.IsPremium = &v
	}
	return bf
}
