package filter

import (
	"net/url"
	"reflect"
	"testing"
)

var knownTournaments = []string{"NBA", "Euroleague", "VTB"}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   Query
	}{
		{
			name:   "zero filter",
			filter: Filter{},
			want:   Query{},
		},
		{
			name:   "season only",
			filter: Filter{Season: Season2025},
			want:   Query{"season": "2025-2026"},
		},
		{
			name:   "every tournament selected",
			filter: Filter{Season: Season2024, Tournaments: []string{"VTB", "NBA", "Euroleague"}},
			want:   Query{"season": "2024-2025"},
		},
		{
			name:   "tournament subset",
			filter: Filter{Tournaments: []string{"NBA", "VTB"}},
			want:   Query{"tournaments": "NBA,VTB"},
		},
		{
			name:   "blank and duplicate tournaments",
			filter: Filter{Tournaments: []string{" NBA", "", "NBA ", "  "}},
			want:   Query{"tournaments": "NBA"},
		},
		{
			name:   "tournament name with a comma",
			filter: Filter{Tournaments: []string{"Cup, Final", "NBA"}},
			want:   Query{"tournaments": "NBA"},
		},
		{
			name:   "only blank tournaments",
			filter: Filter{Tournaments: []string{"", " "}},
			want:   Query{},
		},
		{
			name: "all criteria",
			filter: Filter{
				Season:  Season2024,
				Dates:   DateRange{Start: "2024-10-01", End: "2024-10-31"},
				Times:   TimeRange{Start: "18:00", End: "23:30"},
				Month:   "2024-10",
				BetType: BetTypeOver,
				Premium: PremiumIncluded,
				Result:  ResultWin,
			},
			want: Query{
				"season":     "2024-2025",
				"start_date": "2024-10-01",
				"end_date":   "2024-10-31",
				"start_time": "18:00",
				"end_time":   "23:30",
				"month":      "2024-10",
				"bet_type":   "OVER",
				"is_premium": "true",
				"result":     "WIN",
			},
		},
		{
			name:   "premium excluded",
			filter: Filter{Premium: PremiumExcluded},
			want:   Query{"is_premium": "false"},
		},
		{
			name:   "half open date range",
			filter: Filter{Dates: DateRange{End: "2025-01-15"}},
			want:   Query{"end_date": "2025-01-15"},
		},
		{
			name: "malformed criteria omitted",
			filter: Filter{
				Season:  "1999-2000",
				Dates:   DateRange{Start: "15.01.2025"},
				Times:   TimeRange{Start: "25:00"},
				Month:   "2025-13",
				BetType: "SPREAD",
				Result:  "PUSH",
			},
			want: Query{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.filter, knownTournaments)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
			for key, value := range got {
				if value == "" {
					t.Errorf("key %q has empty value", key)
				}
			}
		})
	}
}

func TestNormalizeUnknownTournamentList(t *testing.T) {
	got := Normalize(Filter{Tournaments: []string{"NBA"}}, nil)
	if got["tournaments"] != "NBA" {
		t.Errorf("expected tournaments=NBA with empty known list, got %v", got)
	}
}

func TestNormalizeStable(t *testing.T) {
	filters := []Filter{
		{},
		{Season: Season2025, Tournaments: []string{"VTB", "NBA"}, Premium: PremiumExcluded},
		{Month: "2025-02", Dates: DateRange{Start: "2025-01-01", End: "2025-01-31"}},
		{Times: TimeRange{Start: "22:00", End: "02:00"}, BetType: BetTypeUnder, Result: ResultLose},
		{Tournaments: []string{"NBA", "Euroleague", "VTB"}},
		{Tournaments: []string{"Cup, Final", "VTB"}},
	}

	for _, f := range filters {
		first := Normalize(f, knownTournaments)
		second := Normalize(FromValues(first.Values()), knownTournaments)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("re-normalized query differs: %v vs %v", first, second)
		}
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{}
	v.Set("season", "2025-2026")
	v.Set("tournaments", "NBA, VTB,,NBA")
	v.Set("bet_type", "under")
	v.Set("result", "lose")
	v.Set("is_premium", "false")
	v.Set("start_date", "2025-01-01")
	v.Set("end_date", "not-a-date")
	v.Set("start_time", "09:30")
	v.Set("month", "2025-01")

	f := FromValues(v)

	if f.Season != Season2025 {
		t.Errorf("expected season 2025-2026, got %q", f.Season)
	}
	if !reflect.DeepEqual(f.Tournaments, []string{"NBA", "VTB"}) {
		t.Errorf("unexpected tournaments: %v", f.Tournaments)
	}
	if f.BetType != BetTypeUnder {
		t.Errorf("expected UNDER, got %q", f.BetType)
	}
	if f.Result != ResultLose {
		t.Errorf("expected LOSE, got %q", f.Result)
	}
	if f.Premium != PremiumExcluded {
		t.Errorf("expected premium excluded, got %v", f.Premium)
	}
	if f.Dates.Start != "2025-01-01" || f.Dates.End != "" {
		t.Errorf("unexpected dates: %+v", f.Dates)
	}
	if f.Times.Start != "09:30" || f.Times.End != "" {
		t.Errorf("unexpected times: %+v", f.Times)
	}
	if f.Month != "2025-01" {
		t.Errorf("expected month 2025-01, got %q", f.Month)
	}
}

func TestFromValuesPremiumUnset(t *testing.T) {
	for _, raw := range []string{"", "all", "maybe"} {
		v := url.Values{}
		if raw != "" {
			v.Set("is_premium", raw)
		}
		if got := FromValues(v).Premium; got != PremiumUnset {
			t.Errorf("is_premium=%q: expected unset, got %v", raw, got)
		}
	}
}

func TestFilterIntentHelpers(t *testing.T) {
	f := Filter{
		Season:      Season2024,
		Tournaments: []string{"NBA"},
		Month:       "2024-11",
		Premium:     PremiumIncluded,
	}

	switched := f.WithSeason(Season2025)
	if !reflect.DeepEqual(switched, Filter{Season: Season2025}) {
		t.Errorf("WithSeason kept criteria: %+v", switched)
	}

	dated := f.WithDates(DateRange{Start: "2024-12-01"})
	if dated.Month != "" || dated.Dates.Start != "2024-12-01" {
		t.Errorf("WithDates did not clear month: %+v", dated)
	}

	monthly := dated.WithMonth("2024-12")
	if !monthly.Dates.IsEmpty() || monthly.Month != "2024-12" {
		t.Errorf("WithMonth did not clear dates: %+v", monthly)
	}
}

func TestFilterBetFilters(t *testing.T) {
	f := Filter{
		Season:      Season2024,
		Tournaments: []string{"NBA", " ", "NBA"},
		Dates:       DateRange{Start: "2024-10-01"},
		Times:       TimeRange{End: "21:00"},
		BetType:     BetTypeUnder,
		Premium:     PremiumExcluded,
		Result:      ResultWin,
	}

	bf := f.BetFilters()
	if bf.Season != "2024-2025" || bf.StartDate != "2024-10-01" || bf.EndTime != "21:00" {
		t.Errorf("unexpected filters %+v", bf)
	}
	if !reflect.DeepEqual(bf.Tournaments, []string{"NBA"}) {
		t.Errorf("unexpected tournaments %v", bf.Tournaments)
	}
	if bf.BetType != "UNDER" || bf.Result != "WIN" {
		t.Errorf("unexpected enums %+v", bf)
	}
	if bf.IsPremium == nil || *bf.IsPremium {
		t.Errorf("expected is_premium=false, got %v", bf.IsPremium)
	}

	if empty := (Filter{}).BetFilters(); empty.IsPremium != nil || empty.Tournaments != nil {
		t.Errorf("expected unset premium and tournaments, got %+v", empty)
	}
}
