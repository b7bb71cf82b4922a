package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/persistence/memory"
	"github.com/swimref/roster/internal/testfixtures"
)

func TestUpdateCommitteeMember(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	r := newRoster(t, nil, testfixtures.WithAdapter(adapter))

	updated, err := r.store.UpdateCommitteeMember(ctx, application.CommitteeMember{
		ID:    "cra2",
		Name:  " Maria Ribeiro ",
		Role:  "Presidente do CRA",
		Email: "maria.ribeiro@natacao.pt",
		Phone: "934 000 000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Ribeiro", updated.Name)

	committee := r.store.Committee(ctx)
	require.Len(t, committee.Members, 3)
	assert.Equal(t, "cra2", committee.Members[1].ID, "members keep their position")
	assert.Equal(t, "934 000 000", committee.Members[1].Phone)

	reloaded, err := application.NewStore(r.factory.Config(t))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "Maria Ribeiro", reloaded.Committee(ctx).Members[1].Name)

	_, err = r.store.UpdateCommitteeMember(ctx, application.CommitteeMember{ID: "cra9", Name: "X", Role: "Vogal"})
	assert.ErrorIs(t, err, application.ErrNotFound)

	_, err = r.store.UpdateCommitteeMember(ctx, application.CommitteeMember{ID: "cra1", Name: "", Role: "Vogal", Email: "nope"})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "name")
	assert.Contains(t, vErr.FieldErrors, "email")
}

func TestUpdateCommitteeConfig(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, nil)

	cfg, err := r.store.UpdateCommitteeConfig(ctx, application.CommitteeConfig{
		TechnicalEmail:      " tecnico@natacao.pt ",
		AdministrativeEmail: "admin.cra@natacao.pt",
	})
	require.NoError(t, err)
	assert.Equal(t, "tecnico@natacao.pt", cfg.TechnicalEmail)
	assert.Equal(t, cfg, r.store.Committee(ctx).Config)

	_, err = r.store.UpdateCommitteeConfig(ctx, application.CommitteeConfig{TechnicalEmail: "invalid"})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "technical_email")
	assert.Contains(t, vErr.FieldErrors, "administrative_email")
	assert.Equal(t, cfg, r.store.Committee(ctx).Config)
}

func TestCommitteeReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, nil)

	c := r.store.Committee(ctx)
	c.Members[0].Name = "mutated"
	assert.NotEqual(t, "mutated", r.store.Committee(ctx).Members[0].Name)
}
