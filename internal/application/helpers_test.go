package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/testfixtures"
)

// roster is the standard fixture: one administrator, two approved referees,
// one pending referee and no competitions unless added.
type roster struct {
	factory *testfixtures.StoreFactory
	store   *application.Store
	admin   persistence.UserRecord
	refA    persistence.UserRecord
	refB    persistence.UserRecord
	pending persistence.UserRecord
}

func newRoster(t *testing.T, competitions []persistence.CompetitionRecord, opts ...testfixtures.StoreFactoryOption) *roster {
	t.Helper()
	factory := testfixtures.NewStoreFactory(opts...)
	hash := testfixtures.MustHashPassword(t, testfixtures.SeedPassword)

	r := &roster{
		factory: factory,
		admin:   testfixtures.NewUserRecord(testfixtures.WithUserID("adm"), testfixtures.WithUserName("Ana Admin"), testfixtures.WithUserEmail("ana@natacao.pt"), testfixtures.AsAdministrator(), testfixtures.WithPasswordHash(hash)),
		refA:    testfixtures.NewUserRecord(testfixtures.WithUserID("ref-a"), testfixtures.WithUserName("Rui Alves"), testfixtures.WithUserEmail("rui@natacao.pt"), testfixtures.WithPasswordHash(hash)),
		refB:    testfixtures.NewUserRecord(testfixtures.WithUserID("ref-b"), testfixtures.WithUserName("Beatriz Costa"), testfixtures.WithUserEmail("bia@natacao.pt"), testfixtures.WithPasswordHash(hash)),
		pending: testfixtures.NewUserRecord(testfixtures.WithUserID("pend"), testfixtures.WithUserName("Pedro Novo"), testfixtures.WithUserEmail("pedro@natacao.pt"), testfixtures.AsPending(), testfixtures.WithPasswordHash(hash)),
	}
	if competitions == nil {
		competitions = []persistence.CompetitionRecord{}
	}
	r.store = factory.NewStore(t, testfixtures.Snapshot{
		Users:        []persistence.UserRecord{r.admin, r.refA, r.refB, r.pending},
		Competitions: competitions,
	})
	return r
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func notificationsFor(t *testing.T, store *application.Store, userID string) []application.Notification {
	t.Helper()
	return store.ListNotifications(context.Background(), userID)
}

func mustCompetition(t *testing.T, store *application.Store, id string) application.Competition {
	t.Helper()
	c, err := store.GetCompetition(context.Background(), id)
	require.NoError(t, err)
	return c
}

func newCompetitionInput(name string, date time.Time) application.CompetitionInput {
	return application.CompetitionInput{
		Name:           name,
		Date:           date,
		Location:       "Piscina Municipal de Coimbra",
		PoolType:       application.PoolShortCourse,
		Description:    "Prova aberta",
		Level:          application.LevelRegional,
		CRAResponsible: "Alexandre Alves",
		ActorName:      "Ana Admin",
	}
}
