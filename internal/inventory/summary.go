package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/walweb/camisolas/internal/auth"
)

const (
	DefaultSummaryWindow = 100
	summaryLinesPerKind  = 5
)

// Summary builds the ticker lines describing recent activity over the last
// window movements.
func (s *Service) Summary(ctx context.Context, actor auth.Actor, window int) ([]string, error) {
	if window <= 0 {
		window = DefaultSummaryWindow
	}

	movs, err := s.RecentMovements(ctx, window)
	if err != nil {
		return nil, err
	}

	var bals []*Balance
	if !hasKind(movs, KindIn) {
		if bals, err = s.Balances(ctx, BalanceFilter{}); err != nil {
			return nil, err
		}
	}

	return SummaryLines(s.now().Format("15:04"), actor.Name(), movs, bals), nil
}

// SummaryLines renders ticker lines from movements (newest first) and, when there
// are no recent arrivals, from the balance snapshot.
func SummaryLines(clock, user string, movs []*Movement, bals []*Balance) []string {
	lines := []string{
		fmt.Sprintf("[%s] CAMISOLAS INVENTORY ::: STATUS: OPERATIONAL ::: USER: %s", clock, strings.ToUpper(user)),
	}

	sales := ofKind(movs, KindSale)
	if len(sales) == 0 {
		lines = append(lines, "SALES: WAITING FOR THE FIRST GOAL OF THE DAY")
	}

	for _, m := range sales {
		lines = append(lines, fmt.Sprintf("SALE [%s]: %s (%s) x%d", m.CreatedAt.Format("15:04"), m.Team, m.Size, m.Quantity))
	}

	samples := ofKind(movs, KindToSample)
	if len(samples) == 0 {
		lines = append(lines, "SAMPLES: ALL STOCK IS IN THE WAREHOUSE")
	}

	for _, m := range samples {
		lines = append(lines, fmt.Sprintf("ON DISPLAY: %s (%s) x%d", m.Team, m.Size, m.Quantity))
	}

	arrivals := ofKind(movs, KindIn)
	if len(arrivals) == 0 {
		total, best := stockFacts(bals)
		lines = append(lines, fmt.Sprintf("DATA: %d UNITS IN STOCK ::: TOP SELLER: %s", total, best))
	}

	for _, m := range arrivals {
		lines = append(lines, fmt.Sprintf("NEW ARRIVAL: %s (%s) x%d", m.Team, m.Size, m.Quantity))
	}

	return lines
}

func ofKind(movs []*Movement, kind Kind) []*Movement {
	var out []*Movement

	for _, m := range movs {
		if m.Kind != kind {
			continue
		}

		out = append(out, m)
		if len(out) == summaryLinesPerKind {
			break
		}
	}

	return out
}

func hasKind(movs []*Movement, kind Kind) bool {
	for _, m := range movs {
		if m.Kind == kind {
			return true
		}
	}

	return false
}

func stockFacts(bals []*Balance) (int, string) {
	total := 0
	sold := make(map[string]int)

	for _, b := range bals {
		total += b.Available
		sold[b.Team] += b.Sold
	}

	teams := make([]string, 0, len(sold))
	for team := range sold {
		teams = append(teams, team)
	}

	sort.Slice(teams, func(i, j int) bool {
		if sold[teams[i]] != sold[teams[j]] {
			return sold[teams[i]] > sold[teams[j]]
		}

		return teams[i] < teams[j]
	})

	if len(teams) == 0 || sold[teams[0]] == 0 {
		return total, "none yet"
	}

	return total, teams[0]
}
