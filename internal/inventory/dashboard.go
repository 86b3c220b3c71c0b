package inventory

import (
	"context"
	"sort"
)

// TeamTotals aggregates every balance of one team.
type TeamTotals struct {
	Team      string
	Available int
	Sample    int
	Sold      int
	BySize    map[Size]int // available units per size
}

type Dashboard struct {
	Teams     []TeamTotals
	Available int
	Sample    int
	Sold      int
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	bals, err := s.Balances(ctx, BalanceFilter{})
	if err != nil {
		return nil, err
	}

	return BuildDashboard(bals), nil
}

// BuildDashboard aggregates balances per team, sorted by team name.
func BuildDashboard(bals []*Balance) *Dashboard {
	byTeam := make(map[string]*TeamTotals)
	d := &Dashboard{}

	for _, b := range bals {
		t, ok := byTeam[b.Team]
		if !ok {
			t = &TeamTotals{Team: b.Team, BySize: make(map[Size]int, len(Sizes))}
			byTeam[b.Team] = t
		}

		t.Available += b.Available
		t.Sample += b.Sample
		t.Sold += b.Sold
		t.BySize[b.Size] += b.Available

		d.Available += b.Available
		d.Sample += b.Sample
		d.Sold += b.Sold
	}

	d.Teams = make([]TeamTotals, 0, len(byTeam))
	for _, t := range byTeam {
		d.Teams = append(d.Teams, *t)
	}

	sort.Slice(d.Teams, func(i, j int) bool { return d.Teams[i].Team < d.Teams[j].Team })

	return d
}
