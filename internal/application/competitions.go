package application

import (
	"context"
	"fmt"
	"strings"
)

// SaveCompetition creates the competition when input.ID is unknown and edits
// it in place otherwise. Edits never touch RSVPs, payment history or
// documents directly. A change of the paid flag is logged and announced to
// every attending official.
func (s *Store) SaveCompetition(ctx context.Context, input CompetitionInput) (competition Competition, err error) {
	logger := s.loggerWith(ctx, "SaveCompetition", "competition_id", input.ID)
	var created bool
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "competition save failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "competition saved", "competition_id", competition.ID, "created", created)
	}()

	input = normalizeCompetitionInput(input)
	if err = validateCompetitionInput(input); err != nil {
		return Competition{}, err
	}

	err = s.mutate(ctx, func(t *txn) error {
		idx := -1
		if input.ID != "" {
			idx = t.competitionIndex(input.ID)
		}
		if idx < 0 {
			created = true
			competition = t.createCompetition(input)
			return nil
		}
		competition = t.editCompetition(idx, input)
		return nil
	})
	if err != nil {
		return Competition{}, err
	}
	return competition, nil
}

func (t *txn) createCompetition(input CompetitionInput) Competition {
	c := Competition{ID: input.ID}
	if c.ID == "" {
		c.ID = t.newID()
	}
	applyCompetitionInput(&c, input)
	if input.IsPaid != nil {
		c.IsPaid = *input.IsPaid
	}

	competitions := t.editCompetitions()
	competitions = append(competitions, Competition{})
	copy(competitions[1:], competitions)
	competitions[0] = c
	t.next.competitions = competitions

	for _, u := range t.next.users {
		if u.IsAdmin() {
			continue
		}
		t.notify(u.ID,
			"Nova Competição Agendada",
			fmt.Sprintf("A competição \"%s\" foi adicionada.", c.Name),
			SeverityInfo, CategoryNewCompetition, c.ID)
	}
	return cloneCompetition(c)
}

func (t *txn) editCompetition(idx int, input CompetitionInput) Competition {
	competitions := t.editCompetitions()
	c := &competitions[idx]
	applyCompetitionInput(c, input)
	if input.IsPaid != nil && *input.IsPaid != c.IsPaid {
		t.setPaid(c, *input.IsPaid, input.ActorName)
	}
	return cloneCompetition(*c)
}

// setPaid flips the paid flag, appends the audit entry and notifies every
// existing user with an Attending RSVP.
func (t *txn) setPaid(c *Competition, paid bool, actorName string) {
	c.IsPaid = paid
	c.PaymentHistory = append(c.PaymentHistory, PaymentLogEntry{
		ID:        t.newID(),
		ActorName: actorName,
		Paid:      paid,
		Timestamp: t.now,
	})

	severity, outcome := SeverityWarning, "marcado como pendente"
	if paid {
		severity, outcome = SeveritySuccess, "confirmado"
	}
	for _, r := range c.RSVPs {
		if r.Status != RSVPAttending || t.userIndex(r.UserID) < 0 {
			continue
		}
		t.notify(r.UserID,
			"Atualização de Pagamento",
			fmt.Sprintf("O pagamento da competição \"%s\" foi %s.", c.Name, outcome),
			severity, CategoryPaymentUpdate, c.ID)
	}
}

// DeleteCompetition removes the competition. Unknown ids are ignored.
func (s *Store) DeleteCompetition(ctx context.Context, id string) (err error) {
	logger := s.loggerWith(ctx, "DeleteCompetition", "competition_id", id)
	var removed bool
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "competition deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "competition deleted", "removed", removed)
	}()

	return s.mutate(ctx, func(t *txn) error {
		idx := t.competitionIndex(id)
		if idx < 0 {
			return nil
		}
		competitions := t.editCompetitions()
		t.next.competitions = append(competitions[:idx], competitions[idx+1:]...)
		removed = true
		return nil
	})
}

// TogglePayment flips the paid flag of a competition, recording actorName in
// the payment history.
func (s *Store) TogglePayment(ctx context.Context, competitionID, actorName string) (competition Competition, err error) {
	logger := s.loggerWith(ctx, "TogglePayment", "competition_id", competitionID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "payment toggle failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "payment toggled", "paid", competition.IsPaid)
	}()

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.competitionIndex(competitionID)
		if idx < 0 {
			return ErrNotFound
		}
		competitions := t.editCompetitions()
		c := &competitions[idx]
		t.setPaid(c, !c.IsPaid, strings.TrimSpace(actorName))
		competition = cloneCompetition(*c)
		return nil
	})
	return competition, err
}

// SubmitRSVP records the user's answer for a competition, replacing any
// earlier answer by the same user. The user's current name and role are
// copied into the RSVP. The user receives a receipt in their own feed.
func (s *Store) SubmitRSVP(ctx context.Context, userID, competitionID string, status RSVPStatus, comment string) (rsvp RSVP, err error) {
	logger := s.loggerWith(ctx, "SubmitRSVP", "user_id", userID, "competition_id", competitionID, "status", string(status))
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "rsvp rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rsvp recorded", "rsvp_id", rsvp.ID)
	}()

	if !status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status must be Attending, Not Attending or Pending")
		return RSVP{}, vErr
	}

	err = s.mutate(ctx, func(t *txn) error {
		cIdx := t.competitionIndex(competitionID)
		if cIdx < 0 {
			return ErrNotFound
		}
		uIdx := t.userIndex(userID)
		if uIdx < 0 {
			return ErrNotFound
		}
		user := t.next.users[uIdx]

		rsvp = RSVP{
			ID:        t.newID(),
			UserID:    user.ID,
			UserName:  user.Name,
			UserRole:  user.Role,
			Status:    status,
			Comment:   strings.TrimSpace(comment),
			Timestamp: t.now,
		}
		competitions := t.editCompetitions()
		c := &competitions[cIdx]
		c.RSVPs = append(removeRSVPsBy(c.RSVPs, user.ID), rsvp)

		t.notify(user.ID,
			"Confirmação Registada",
			fmt.Sprintf("O seu estado para \"%s\" é agora: %s.", c.Name, status.Label()),
			SeveritySuccess, CategoryRSVPChange, c.ID)
		return nil
	})
	return rsvp, err
}

// GetCompetition returns the competition with the given id.
func (s *Store) GetCompetition(_ context.Context, id string) (Competition, error) {
	var (
		competition Competition
		found       bool
	)
	s.view(func(state *rosterState) {
		for _, c := range state.competitions {
			if c.ID == id {
				competition, found = cloneCompetition(c), true
				return
			}
		}
	})
	if !found {
		return Competition{}, ErrNotFound
	}
	return competition, nil
}

// ListCompetitions returns every competition, newest first.
func (s *Store) ListCompetitions(_ context.Context) []Competition {
	var competitions []Competition
	s.view(func(state *rosterState) {
		competitions = cloneCompetitions(state.competitions)
	})
	return competitions
}

// Attendees returns the current users holding an Attending RSVP on the
// competition, in RSVP order.
func (s *Store) Attendees(_ context.Context, competitionID string) ([]User, error) {
	var (
		attendees []User
		found     bool
	)
	s.view(func(state *rosterState) {
		for _, c := range state.competitions {
			if c.ID != competitionID {
				continue
			}
			found = true
			for _, r := range c.RSVPs {
				if r.Status != RSVPAttending {
					continue
				}
				for _, u := range state.users {
					if u.ID == r.UserID {
						attendees = append(attendees, u)
						break
					}
				}
			}
			return
		}
	})
	if !found {
		return nil, ErrNotFound
	}
	return attendees, nil
}

func normalizeCompetitionInput(input CompetitionInput) CompetitionInput {
	input.ID = strings.TrimSpace(input.ID)
	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	input.CRAResponsible = strings.TrimSpace(input.CRAResponsible)
	input.ActorName = strings.TrimSpace(input.ActorName)
	if !input.Date.IsZero() {
		input.Date = dateOnly(input.Date)
	}
	return input
}

func validateCompetitionInput(input CompetitionInput) error {
	vErr := &ValidationError{}
	vErr.required("name", input.Name)
	vErr.required("location", input.Location)
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	return vErr.errOrNil()
}

func applyCompetitionInput(c *Competition, input CompetitionInput) {
	c.Name = input.Name
	c.Date = input.Date
	c.Location = input.Location
	c.PoolType = input.PoolType
	c.Description = input.Description
	c.Level = input.Level
	c.CRAResponsible = input.CRAResponsible
}
