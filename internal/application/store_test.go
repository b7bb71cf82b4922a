package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/memory"
	"github.com/swimref/roster/internal/testfixtures"
)

func TestNewStoreRequiresAdapter(t *testing.T) {
	_, err := application.NewStore(application.StoreConfig{})
	assert.Error(t, err)
}

func TestNewStoreDefaultsToUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store, err := application.NewStore(application.StoreConfig{
		Adapter:      memory.New(),
		HashPassword: func(p string) (string, error) { return "hash:" + p, nil },
	})
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))

	first, err := store.RegisterUser(ctx, application.RegisterUserInput{Name: "Marta Silva", Email: "marta@natacao.pt", Password: "piscina-olimpica"})
	require.NoError(t, err)
	second, err := store.RegisterUser(ctx, application.RegisterUserInput{Name: "Joana Reis", Email: "joana@natacao.pt", Password: "piscina-olimpica"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	before := len(store.ListCompetitions(ctx))
	a, err := store.SaveCompetition(ctx, newCompetitionInput("Taça de Inverno", day(2025, time.January, 18)))
	require.NoError(t, err)
	b, err := store.SaveCompetition(ctx, newCompetitionInput("Taça de Verão", day(2025, time.July, 5)))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, store.ListCompetitions(ctx), before+2)
}

func TestLoadSeedsMissingCollections(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewStoreFactory()
	store := factory.NewStore(t, testfixtures.Snapshot{})

	users := store.ListUsers(ctx)
	require.Len(t, users, 2)
	assert.Equal(t, application.SeedAdministratorID, users[0].ID)
	assert.Equal(t, "admin@swimref.pt", users[0].Email)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "João Silva", users[1].Name)
	assert.NoError(t, application.VerifyPassword(users[1].PasswordHash, testfixtures.SeedPassword))

	competitions := store.ListCompetitions(ctx)
	require.Len(t, competitions, 1)
	assert.Equal(t, application.SeedCompetitionID, competitions[0].ID)
	assert.Equal(t, day(2024, time.December, 15), competitions[0].Date)
	assert.True(t, competitions[0].IsPaid)
	assert.Empty(t, competitions[0].RSVPs)

	committee := store.Committee(ctx)
	assert.Len(t, committee.Members, 3)
	assert.Equal(t, "ana@natacao.pt", committee.Config.TechnicalEmail)

	_, hasSession := store.SessionUser(ctx)
	assert.False(t, hasSession)

	for _, key := range []string{persistence.KeyUsers, persistence.KeyCompetitions, persistence.KeyCommittee} {
		_, err := factory.Adapter.Load(ctx, key)
		assert.NoError(t, err, "seed written back under %s", key)
	}
	_, err := factory.Adapter.Load(ctx, persistence.KeyCurrentUser)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestLoadSeedsUnreadableCollections(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	require.NoError(t, adapter.Save(ctx, persistence.KeyUsers, []byte("{not json")))

	factory := testfixtures.NewStoreFactory(testfixtures.WithAdapter(adapter))
	store := factory.NewStore(t, testfixtures.Snapshot{})

	users := store.ListUsers(ctx)
	require.Len(t, users, 2)
	assert.Equal(t, application.SeedAdministratorID, users[0].ID)

	blob, err := adapter.Load(ctx, persistence.KeyUsers)
	require.NoError(t, err)
	assert.NotEqual(t, "{not json", string(blob))
}

func TestLoadKeepsStoredCollections(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	factory := testfixtures.NewStoreFactory(testfixtures.WithAdapter(adapter))
	user := testfixtures.NewUserRecord(testfixtures.WithUserID("solo"), testfixtures.AsAdministrator())
	store := factory.NewStore(t, testfixtures.Snapshot{
		Users:        []persistence.UserRecord{user},
		Competitions: []persistence.CompetitionRecord{},
		SessionUser:  "solo",
	})

	require.Len(t, store.ListUsers(ctx), 1)
	assert.Empty(t, store.ListCompetitions(ctx))
	session, ok := store.SessionUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "solo", session.ID)
	assert.Equal(t, 1, adapter.SaveCount(persistence.KeyUsers), "stored collections are not rewritten")
}

func TestLoadFailsOnAdapterError(t *testing.T) {
	adapter := memory.New()
	require.NoError(t, adapter.Close())

	factory := testfixtures.NewStoreFactory(testfixtures.WithAdapter(adapter))
	store, err := application.NewStore(factory.Config(t))
	require.NoError(t, err)

	assert.ErrorIs(t, store.Load(context.Background()), persistence.ErrClosed)
}

func TestFailedPersistenceLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	adapter := testfixtures.NewFailingAdapter(memory.New())
	r := newRoster(t, nil, testfixtures.WithAdapter(adapter))

	adapter.FailWrites(persistence.KeyCompetitions)
	_, err := r.store.SaveCompetition(ctx, newCompetitionInput("Falhada", day(2025, time.June, 1)))
	require.ErrorIs(t, err, testfixtures.ErrInjected)

	assert.Empty(t, r.store.ListCompetitions(ctx))
	assert.Empty(t, notificationsFor(t, r.store, r.refA.ID))
	assert.Empty(t, r.factory.Publisher.Deliveries(), "nothing is published for a failed mutation")

	adapter.Heal()
	_, err = r.store.SaveCompetition(ctx, newCompetitionInput("Recuperada", day(2025, time.June, 1)))
	require.NoError(t, err)
	assert.Len(t, r.store.ListCompetitions(ctx), 1)
}

func TestFailedSessionWriteKeepsSession(t *testing.T) {
	ctx := context.Background()
	adapter := testfixtures.NewFailingAdapter(memory.New())
	r := newRoster(t, nil, testfixtures.WithAdapter(adapter))
	require.NoError(t, r.store.SetSessionUser(ctx, r.refA.ID))

	adapter.FailWrites()
	assert.ErrorIs(t, r.store.ClearSessionUser(ctx), testfixtures.ErrInjected)

	user, ok := r.store.SessionUser(ctx)
	require.True(t, ok)
	assert.Equal(t, r.refA.ID, user.ID)
}

func TestReloadRestoresState(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, []persistence.CompetitionRecord{testfixtures.NewCompetitionRecord(testfixtures.WithCompetitionID("c-1"))})

	_, err := r.store.SubmitRSVP(ctx, r.refA.ID, "c-1", application.RSVPAttending, "vou de comboio")
	require.NoError(t, err)
	_, err = r.store.TogglePayment(ctx, "c-1", "Ana Admin")
	require.NoError(t, err)
	_, err = r.store.ApproveUser(ctx, r.pending.ID)
	require.NoError(t, err)
	require.NoError(t, r.store.SetSessionUser(ctx, r.refB.ID))

	reloaded, err := application.NewStore(r.factory.Config(t))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(ctx))

	c := mustCompetition(t, reloaded, "c-1")
	assert.True(t, c.IsPaid)
	require.Len(t, c.PaymentHistory, 1)
	assert.Equal(t, "Ana Admin", c.PaymentHistory[0].ActorName)
	require.Len(t, c.RSVPs, 1)
	assert.Equal(t, "vou de comboio", c.RSVPs[0].Comment)
	assert.Equal(t, application.RSVPAttending, c.RSVPs[0].Status)

	pending, err := reloaded.GetUser(ctx, r.pending.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, pending.Status)

	original := notificationsFor(t, r.store, r.refA.ID)
	restored := notificationsFor(t, reloaded, r.refA.ID)
	require.Len(t, restored, len(original))
	for i := range original {
		assert.Equal(t, original[i].ID, restored[i].ID)
		assert.Equal(t, original[i].Category, restored[i].Category)
		assert.Equal(t, original[i].Severity, restored[i].Severity)
		assert.True(t, original[i].CreatedAt.Equal(restored[i].CreatedAt))
	}

	session, ok := reloaded.SessionUser(ctx)
	require.True(t, ok)
	assert.Equal(t, r.refB.ID, session.ID)
}

func TestMutationsWriteOnlyTouchedKeys(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	r := newRoster(t, nil, testfixtures.WithAdapter(adapter))
	usersBefore := adapter.SaveCount(persistence.KeyUsers)

	_, err := r.store.SaveCompetition(ctx, newCompetitionInput("Prova", day(2025, time.July, 1)))
	require.NoError(t, err)

	assert.Equal(t, usersBefore, adapter.SaveCount(persistence.KeyUsers))
	assert.Equal(t, 2, adapter.SaveCount(persistence.KeyCompetitions), "snapshot plus one write")
}
