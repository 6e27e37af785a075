package betlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), "configured-token")
}

func TestListBets(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("bet_type") != "OVER" || r.URL.Query().Get("season") != "2024-2025" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":1,"date":"2024-10-01T19:00:00","team1":"Lakers","is_premium":true,"created_at":"2024-10-01T20:00:00"}]`))
	})

	bets, err := client.ListBets(context.Background(), filter.Query{"season": "2024-2025", "bet_type": "OVER"})
	if err != nil {
		t.Fatalf("ListBets() error: %v", err)
	}
	if len(bets) != 1 || bets[0].ID != 1 || !bets[0].IsPremium || *bets[0].Team1 != "Lakers" {
		t.Errorf("unexpected bets %+v", bets)
	}
	if bets[0].Team2 != nil {
		t.Error("expected missing team2 to stay nil")
	}
}

func TestListBetsNullBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	bets, err := client.ListBets(context.Background(), filter.Query{})
	if err != nil {
		t.Fatalf("ListBets() error: %v", err)
	}
	if bets == nil || len(bets) != 0 {
		t.Errorf("expected empty non-nil list, got %v", bets)
	}
}

func TestGetStatsGlobalQuery(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected empty query for global stats, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"totalBets":      120,
			"wins":           70,
			"losses":         50,
			"currentNominal": 110,
			"currentBank":    2575.5,
			"filterConflict": false,
		})
	})

	stats, err := client.GetStats(context.Background(), filter.Query{})
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalBets != 120 || stats.CurrentBank == nil || *stats.CurrentBank != 2575.5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.WinRate != nil {
		t.Error("expected winRate absent")
	}
}

func TestGetStatsErrorStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error","message":"failed to compute stats","code":500}`))
	})

	_, err := client.GetStats(context.Background(), filter.Query{"month": "2025-01"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != 500 || statusErr.Message != "failed to compute stats" {
		t.Errorf("unexpected status error %v", err)
	}
}

func TestListTournamentsAndSeasonData(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("season") != "2025-2026" {
			t.Errorf("expected season param, got %q", r.URL.RawQuery)
		}
		switch r.URL.Path {
		case "/api/tournaments":
			w.Write([]byte(`["NBA","VTB"]`))
		case "/api/season-data":
			w.Write([]byte(`{"season":"2025-2026","tournaments":["NBA"],"dateRange":{"min":"2025-09-01","max":null},"months":[{"value":"2025-09","label":"September 2025"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	tournaments, err := client.ListTournaments(context.Background(), filter.Season2025)
	if err != nil {
		t.Fatalf("ListTournaments() error: %v", err)
	}
	if len(tournaments) != 2 {
		t.Errorf("expected 2 tournaments, got %v", tournaments)
	}

	data, err := client.SeasonData(context.Background(), filter.Season2025)
	if err != nil {
		t.Fatalf("SeasonData() error: %v", err)
	}
	if data.DateRange.Min == nil || *data.DateRange.Min != "2025-09-01" || data.DateRange.Max != nil {
		t.Errorf("unexpected date range %+v", data.DateRange)
	}
	if len(data.Months) != 1 || data.Months[0].Value != "2025-09" {
		t.Errorf("unexpected months %+v", data.Months)
	}
}

func TestTriggerSync(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		wantToken string
	}{
		{"configured token", "", "configured-token"},
		{"caller token wins", "caller-token", "caller-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/sync" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get(AdminTokenHeader); got != tt.wantToken {
					t.Errorf("expected token %q, got %q", tt.wantToken, got)
				}
				w.WriteHeader(http.StatusAccepted)
				w.Write([]byte(`{"status":"queued","request_id":"abc","season":"2024-2025","requested_at":"2025-01-01T10:00:00Z"}`))
			})

			ack, err := client.TriggerSync(context.Background(), filter.Season2024, tt.token)
			if err != nil {
				t.Fatalf("TriggerSync() error: %v", err)
			}
			if ack.Status != "queued" || ack.RequestID != "abc" {
				t.Errorf("unexpected ack %+v", ack)
			}
		})
	}
}

func TestTriggerSyncForbidden(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized", Message: "invalid admin token", Code: 401})
	})

	_, err := client.TriggerSync(context.Background(), "", "")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestPingUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, "")
	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected error for unreachable source")
	}
}
