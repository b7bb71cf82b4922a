package application

import (
	"context"
	"strings"
)

// Committee returns the committee roster and its configuration.
func (s *Store) Committee(_ context.Context) Committee {
	var c Committee
	s.view(func(state *rosterState) {
		c = cloneCommittee(state.committee)
	})
	return c
}

// UpdateCommitteeMember replaces the contact details of an existing member.
func (s *Store) UpdateCommitteeMember(ctx context.Context, member CommitteeMember) (updated CommitteeMember, err error) {
	logger := s.loggerWith(ctx, "UpdateCommitteeMember", "member_id", member.ID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "committee member update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "committee member updated")
	}()

	member = CommitteeMember{
		ID:       strings.TrimSpace(member.ID),
		Name:     strings.TrimSpace(member.Name),
		Role:     strings.TrimSpace(member.Role),
		Email:    strings.TrimSpace(member.Email),
		Phone:    strings.TrimSpace(member.Phone),
		PhotoURL: strings.TrimSpace(member.PhotoURL),
	}
	vErr := &ValidationError{}
	vErr.required("name", member.Name)
	vErr.required("role", member.Role)
	if member.Email != "" {
		validateEmail(vErr, member.Email)
	}
	if err = vErr.errOrNil(); err != nil {
		return CommitteeMember{}, err
	}

	err = s.mutate(ctx, func(t *txn) error {
		for i := range t.next.committee.Members {
			if t.next.committee.Members[i].ID == member.ID {
				t.editCommittee().Members[i] = member
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return CommitteeMember{}, err
	}
	return member, nil
}

// UpdateCommitteeConfig replaces the committee's institutional addresses.
func (s *Store) UpdateCommitteeConfig(ctx context.Context, cfg CommitteeConfig) (updated CommitteeConfig, err error) {
	logger := s.loggerWith(ctx, "UpdateCommitteeConfig")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "committee config update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "committee config updated")
	}()

	cfg.TechnicalEmail = strings.TrimSpace(cfg.TechnicalEmail)
	cfg.AdministrativeEmail = strings.TrimSpace(cfg.AdministrativeEmail)

	vErr := &ValidationError{}
	if cfg.TechnicalEmail == "" {
		vErr.add("technical_email", "technical_email is required")
	} else if !validAddress(cfg.TechnicalEmail) {
		vErr.add("technical_email", "technical_email is invalid")
	}
	if cfg.AdministrativeEmail == "" {
		vErr.add("administrative_email", "administrative_email is required")
	} else if !validAddress(cfg.AdministrativeEmail) {
		vErr.add("administrative_email", "administrative_email is invalid")
	}
	if err = vErr.errOrNil(); err != nil {
		return CommitteeConfig{}, err
	}

	err = s.mutate(ctx, func(t *txn) error {
		t.editCommittee().Config = cfg
		return nil
	})
	if err != nil {
		return CommitteeConfig{}, err
	}
	return cfg, nil
}

func validAddress(email string) bool {
	vErr := &ValidationError{}
	validateEmail(vErr, email)
	return !vErr.HasErrors()
}
