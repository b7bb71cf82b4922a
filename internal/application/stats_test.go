package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/testfixtures"
)

func seasonRoster(t *testing.T) *roster {
	t.Helper()
	base := newRoster(t, nil)
	return newRoster(t, []persistence.CompetitionRecord{
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("s24"), testfixtures.WithCompetitionDate(day(2024, time.November, 3)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("s25a"), testfixtures.WithCompetitionDate(day(2025, time.January, 12)),
			testfixtures.WithRSVP(base.refA, "Attending"), testfixtures.WithRSVP(base.refB, "Not Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("s25b"), testfixtures.WithCompetitionDate(day(2025, time.February, 9)),
			testfixtures.WithRSVP(base.refA, "Attending"), testfixtures.WithRSVP(base.admin, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("s25c"), testfixtures.WithCompetitionDate(day(2025, time.March, 16)),
			testfixtures.WithRSVP(base.refB, "Attending")),
	})
}

func TestSeasons(t *testing.T) {
	r := seasonRoster(t)
	assert.Equal(t, []int{2025, 2024}, r.store.Seasons(context.Background()))
}

func TestSeasonsEmpty(t *testing.T) {
	r := newRoster(t, nil)
	assert.Empty(t, r.store.Seasons(context.Background()))
}

func TestAttendanceStats(t *testing.T) {
	ctx := context.Background()
	r := seasonRoster(t)

	stats := r.store.AttendanceStats(ctx, 2025)
	require.Len(t, stats, 3, "referees only, pending accounts included")

	byID := make(map[string]application.RefereeStats, len(stats))
	for _, s := range stats {
		byID[s.UserID] = s
	}
	assert.Equal(t, application.RefereeStats{UserID: "ref-a", Name: "Rui Alves", Email: "rui@natacao.pt", Attended: 2, Total: 3, Percentage: 67}, byID["ref-a"])
	assert.Equal(t, 1, byID["ref-b"].Attended)
	assert.Equal(t, 33, byID["ref-b"].Percentage)
	assert.Equal(t, 0, byID["pend"].Attended)
	_, hasAdmin := byID["adm"]
	assert.False(t, hasAdmin)

	empty := r.store.AttendanceStats(ctx, 2019)
	require.Len(t, empty, 3)
	for _, s := range empty {
		assert.Zero(t, s.Total)
		assert.Zero(t, s.Percentage, "no competitions means zero percent")
	}
}

func TestAttendanceStatsFollowMutations(t *testing.T) {
	ctx := context.Background()
	r := seasonRoster(t)

	before := r.store.AttendanceStats(ctx, 2025)
	require.NotEmpty(t, before)

	_, err := r.store.SubmitRSVP(ctx, r.refB.ID, "s25b", application.RSVPAttending, "")
	require.NoError(t, err)

	for _, s := range r.store.AttendanceStats(ctx, 2025) {
		if s.UserID == r.refB.ID {
			assert.Equal(t, 2, s.Attended, "cached stats are dropped after a write")
		}
	}

	_, err = r.store.ChangeRole(ctx, r.refA.ID, application.RoleAdministrator)
	require.NoError(t, err)
	assert.Len(t, r.store.AttendanceStats(ctx, 2025), 2)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	base := newRoster(t, nil)
	r := newRoster(t, []persistence.CompetitionRecord{
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("past"), testfixtures.WithCompetitionDate(day(2025, time.January, 10)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("last-year"), testfixtures.WithCompetitionDate(day(2024, time.June, 10)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("up-4"), testfixtures.WithCompetitionDate(day(2025, time.June, 1)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("up-1"), testfixtures.WithCompetitionDate(day(2025, time.March, 1)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("up-3"), testfixtures.WithCompetitionDate(day(2025, time.May, 1)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("up-2"), testfixtures.WithCompetitionDate(day(2025, time.April, 1)),
			testfixtures.WithRSVP(base.refA, "Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("invite-2"), testfixtures.WithCompetitionDate(day(2025, time.September, 1))),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("invite-1"), testfixtures.WithCompetitionDate(day(2025, time.July, 1))),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("declined"), testfixtures.WithCompetitionDate(day(2025, time.August, 1)),
			testfixtures.WithRSVP(base.refA, "Not Attending")),
		testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("old-invite"), testfixtures.WithCompetitionDate(day(2025, time.February, 1))),
	})

	now := time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC)
	d, err := r.store.Dashboard(ctx, r.refA.ID, now)
	require.NoError(t, err)

	ids := func(list []application.Competition) []string {
		out := make([]string, len(list))
		for i, c := range list {
			out[i] = c.ID
		}
		return out
	}
	assert.Equal(t, []string{"up-1", "up-2", "up-3"}, ids(d.UpcomingConfirmed), "competitions today count as upcoming")
	assert.Equal(t, []string{"invite-1", "invite-2"}, ids(d.PendingInvitations))
	assert.Equal(t, 5, d.AttendedThisYear)
	assert.Empty(t, d.RecentNotifications)
	assert.Zero(t, d.UnreadCount)

	_, err = r.store.Dashboard(ctx, "ghost", now)
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestDashboardRecentNotifications(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, nil)

	var last string
	for _, name := range []string{"Um", "Dois", "Três"} {
		c, err := r.store.SaveCompetition(ctx, newCompetitionInput(name, day(2025, time.May, 1)))
		require.NoError(t, err)
		last = c.ID
	}

	d, err := r.store.Dashboard(ctx, r.refA.ID, day(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, d.RecentNotifications, 2)
	assert.Equal(t, last, d.RecentNotifications[0].LinkTo)
	assert.Equal(t, 3, d.UnreadCount)
}
