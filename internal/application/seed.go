package application

import "time"

// Seed identifiers are stable so bookmarks and tests can rely on them.
const (
	SeedAdministratorID = "u1"
	SeedRefereeID       = "u2"
	SeedCompetitionID   = "c1"
)

func seedUsers(passwordHash string, now time.Time) []User {
	return []User{
		{
			ID:           SeedAdministratorID,
			Name:         "Administrador Principal",
			Email:        "admin@swimref.pt",
			Role:         RoleAdministrator,
			Status:       StatusApproved,
			Preferences:  DefaultPreferences(),
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           SeedRefereeID,
			Name:         "João Silva",
			Email:        "ref@swimref.pt",
			Role:         RoleReferee,
			Status:       StatusApproved,
			Preferences:  DefaultPreferences(),
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

func seedCompetitions() []Competition {
	return []Competition{
		{
			ID:             SeedCompetitionID,
			Name:           "Campeonato Regional de Inverno 2024",
			Date:           time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
			Location:       "Complexo de Piscinas do Jamor",
			PoolType:       PoolLongCourse,
			Description:    "Campeonato regional de natação pura para categorias de juvenis e seniores. Briefing obrigatório às 08h30.",
			Level:          LevelNational,
			IsPaid:         true,
			CRAResponsible: "Alexandre Alves",
		},
	}
}

func seedCommittee() Committee {
	return Committee{
		Members: []CommitteeMember{
			{ID: "cra1", Name: "Alexandre Alves", Role: "Presidente do CRA", Email: "alexandre.alves@natacao.pt", Phone: "912 345 678"},
			{ID: "cra2", Name: "Maria Leonor Ribeiro", Role: "Vice-Presidente do CRA", Email: "maria.ribeiro@natacao.pt", Phone: "934 567 890"},
			{ID: "cra3", Name: "Vasco Lopes da Silva", Role: "Vogal do CRA", Email: "vasco.silva@natacao.pt", Phone: "967 890 123"},
		},
		Config: CommitteeConfig{
			TechnicalEmail:      "ana@natacao.pt",
			AdministrativeEmail: "conselho.arbitragem@natacao.pt",
		},
	}
}
