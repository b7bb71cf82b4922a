package application

import (
	"context"
	"math"
	"sort"
	"time"
)

const (
	dashboardUpcomingLimit = 3
	dashboardRecentLimit   = 2
)

// Seasons lists the calendar years that have at least one competition,
// newest first.
func (s *Store) Seasons(_ context.Context) []int {
	seen := make(map[int]struct{})
	s.view(func(state *rosterState) {
		for _, c := range state.competitions {
			seen[c.Date.Year()] = struct{}{}
		}
	})
	seasons := make([]int, 0, len(seen))
	for year := range seen {
		seasons = append(seasons, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons
}

// AttendanceStats computes, for every referee, how many of the season's
// competitions they confirmed attendance for. Results are cached until the
// next mutation.
func (s *Store) AttendanceStats(_ context.Context, season int) []RefereeStats {
	var stats []RefereeStats
	s.view(func(state *rosterState) {
		if cached, ok := s.stats.Get(season); ok {
			stats = cached
			return
		}
		stats = computeAttendance(state, season)
		s.stats.Store(season, stats)
	})
	return stats
}

func computeAttendance(state *rosterState, season int) []RefereeStats {
	var inSeason []Competition
	for _, c := range state.competitions {
		if c.Date.Year() == season {
			inSeason = append(inSeason, c)
		}
	}

	stats := make([]RefereeStats, 0, len(state.users))
	for _, u := range state.users {
		if u.Role != RoleReferee {
			continue
		}
		attended := 0
		for _, c := range inSeason {
			if r, ok := c.RSVPFor(u.ID); ok && r.Status == RSVPAttending {
				attended++
			}
		}
		stats = append(stats, RefereeStats{
			UserID:     u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Attended:   attended,
			Total:      len(inSeason),
			Percentage: percentage(attended, len(inSeason)),
		})
	}
	return stats
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Dashboard builds the landing view of a user as of now. Competitions dated
// today count as upcoming.
func (s *Store) Dashboard(_ context.Context, userID string, now time.Time) (Dashboard, error) {
	today := dateOnly(now)
	var (
		d     Dashboard
		found bool
	)
	s.view(func(state *rosterState) {
		for _, u := range state.users {
			if u.ID == userID {
				found = true
				break
			}
		}
		if !found {
			return
		}
		for _, c := range state.competitions {
			r, answered := c.RSVPFor(userID)
			attending := answered && r.Status == RSVPAttending
			if attending && c.Date.Year() == today.Year() {
				d.AttendedThisYear++
			}
			if c.Date.Before(today) {
				continue
			}
			switch {
			case attending:
				d.UpcomingConfirmed = append(d.UpcomingConfirmed, cloneCompetition(c))
			case !answered:
				d.PendingInvitations = append(d.PendingInvitations, cloneCompetition(c))
			}
		}
		for _, n := range state.notifications {
			if n.RecipientID != userID {
				continue
			}
			if len(d.RecentNotifications) < dashboardRecentLimit {
				d.RecentNotifications = append(d.RecentNotifications, n)
			}
			if !n.Read {
				d.UnreadCount++
			}
		}
	})
	if !found {
		return Dashboard{}, ErrNotFound
	}

	byDate := func(list []Competition) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	}
	byDate(d.UpcomingConfirmed)
	byDate(d.PendingInvitations)
	if len(d.UpcomingConfirmed) > dashboardUpcomingLimit {
		d.UpcomingConfirmed = d.UpcomingConfirmed[:dashboardUpcomingLimit]
	}
	return d, nil
}
