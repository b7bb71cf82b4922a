package application

import (
	"context"
	"net/mail"
	"strings"
)

// RegisterUser creates a self-registered account. New accounts are Pending
// Referees with default preferences regardless of what the caller asked for.
func (s *Store) RegisterUser(ctx context.Context, input RegisterUserInput) (user User, err error) {
	email := normalizeEmail(input.Email)
	logger := s.loggerWith(ctx, "RegisterUser", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "registration rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	}()

	name := strings.TrimSpace(input.Name)
	vErr := &ValidationError{}
	vErr.required("name", name)
	validateEmail(vErr, email)
	if input.Password == "" {
		vErr.add("password", "password is required")
	} else if len([]rune(input.Password)) < MinPasswordLength {
		vErr.add("password", "password is too short")
	}
	if err = vErr.errOrNil(); err != nil {
		return User{}, err
	}

	// Hashing is slow and does not need the roster lock.
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return User{}, err
	}

	err = s.mutate(ctx, func(t *txn) error {
		if t.emailTaken(email, "") {
			return ErrDuplicateEmail
		}
		user = User{
			ID:           t.newID(),
			Name:         name,
			Email:        email,
			Role:         RoleReferee,
			Status:       StatusPending,
			Preferences:  DefaultPreferences(),
			PasswordHash: hash,
			CreatedAt:    t.now,
			UpdatedAt:    t.now,
		}
		t.next.users = append(t.editUsers(), user)
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ApproveUser moves a user from Pending to Approved. Approving an approved
// user is a no-op.
func (s *Store) ApproveUser(ctx context.Context, id string) (user User, err error) {
	logger := s.loggerWith(ctx, "ApproveUser", "user_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "approval failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user approved")
	}()

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		if t.next.users[idx].Status == StatusApproved {
			user = t.next.users[idx]
			return nil
		}
		users := t.editUsers()
		users[idx].Status = StatusApproved
		users[idx].UpdatedAt = t.now
		user = users[idx]
		return nil
	})
	return user, err
}

// ChangeRole assigns role to the user. The roster must keep at least one
// administrator.
func (s *Store) ChangeRole(ctx context.Context, id string, role Role) (user User, err error) {
	logger := s.loggerWith(ctx, "ChangeRole", "user_id", id, "role", string(role))
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "role change failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "role changed")
	}()

	if !role.Valid() {
		vErr := &ValidationError{}
		vErr.add("role", "role must be Administrator or Referee")
		return User{}, vErr
	}

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		current := t.next.users[idx]
		if current.Role == role {
			user = current
			return nil
		}
		if current.IsAdmin() && t.administratorCount() == 1 {
			return ErrLastAdministrator
		}
		users := t.editUsers()
		users[idx].Role = role
		users[idx].UpdatedAt = t.now
		user = users[idx]
		return nil
	})
	return user, err
}

// DeleteUser removes the user and strips every RSVP they authored. Unknown ids
// are ignored. The session pointer is cleared when it referenced the user.
// Removing the last administrator is refused with ErrLastAdministrator so the
// roster always keeps someone able to approve accounts. Callers are
// responsible for preventing self-deletion.
func (s *Store) DeleteUser(ctx context.Context, id string) (err error) {
	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id)
	var stripped int
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "user deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted", "rsvps_removed", stripped)
	}()

	return s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return nil
		}
		if t.next.users[idx].IsAdmin() && t.administratorCount() == 1 {
			return ErrLastAdministrator
		}
		users := t.editUsers()
		t.next.users = append(users[:idx], users[idx+1:]...)

		for i, c := range t.next.competitions {
			if _, ok := c.RSVPFor(id); !ok {
				continue
			}
			competitions := t.editCompetitions()
			competitions[i].RSVPs = removeRSVPsBy(competitions[i].RSVPs, id)
			stripped++
		}

		if t.next.sessionUserID == id {
			t.setSession("")
		}
		return nil
	})
}

// UpdatePreferences replaces the user's notification preferences.
func (s *Store) UpdatePreferences(ctx context.Context, id string, prefs NotificationPreferences) (user User, err error) {
	logger := s.loggerWith(ctx, "UpdatePreferences", "user_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "preferences update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "preferences updated")
	}()

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		users := t.editUsers()
		users[idx].Preferences = prefs
		users[idx].UpdatedAt = t.now
		user = users[idx]
		return nil
	})
	return user, err
}

// UpdateProfile replaces the profile fields set in patch. RSVPs keep the name
// they were given with.
func (s *Store) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (user User, err error) {
	logger := s.loggerWith(ctx, "UpdateProfile", "user_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "profile update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	vErr := &ValidationError{}
	var name, email string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		vErr.required("name", name)
	}
	if patch.Email != nil {
		email = normalizeEmail(*patch.Email)
		validateEmail(vErr, email)
	}
	if err = vErr.errOrNil(); err != nil {
		return User{}, err
	}

	err = s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		if patch.Email != nil && t.emailTaken(email, id) {
			return ErrDuplicateEmail
		}
		users := t.editUsers()
		if patch.Name != nil {
			users[idx].Name = name
		}
		if patch.Email != nil {
			users[idx].Email = email
		}
		if patch.ProfilePictureURL != nil {
			users[idx].ProfilePictureURL = strings.TrimSpace(*patch.ProfilePictureURL)
		}
		users[idx].UpdatedAt = t.now
		user = users[idx]
		return nil
	})
	return user, err
}

// SetPasswordHash replaces the stored credential of a user.
func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	return s.mutate(ctx, func(t *txn) error {
		idx := t.userIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		users := t.editUsers()
		users[idx].PasswordHash = hash
		users[idx].UpdatedAt = t.now
		return nil
	})
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(_ context.Context, id string) (User, error) {
	var (
		user  User
		found bool
	)
	s.view(func(state *rosterState) {
		for _, u := range state.users {
			if u.ID == id {
				user, found = u, true
				return
			}
		}
	})
	if !found {
		return User{}, ErrNotFound
	}
	return user, nil
}

// FindUserByEmail looks a user up ignoring case.
func (s *Store) FindUserByEmail(_ context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	var (
		user  User
		found bool
	)
	s.view(func(state *rosterState) {
		for _, u := range state.users {
			if normalizeEmail(u.Email) == email {
				user, found = u, true
				return
			}
		}
	})
	if !found {
		return User{}, ErrNotFound
	}
	return user, nil
}

// ListUsers returns every user in registration order.
func (s *Store) ListUsers(_ context.Context) []User {
	var users []User
	s.view(func(state *rosterState) {
		users = cloneUsers(state.users)
	})
	return users
}

// SetSessionUser records the user of the current session.
func (s *Store) SetSessionUser(ctx context.Context, id string) error {
	return s.mutate(ctx, func(t *txn) error {
		if t.userIndex(id) < 0 {
			return ErrNotFound
		}
		if t.next.sessionUserID != id {
			t.setSession(id)
		}
		return nil
	})
}

// ClearSessionUser forgets the current session user.
func (s *Store) ClearSessionUser(ctx context.Context) error {
	return s.mutate(ctx, func(t *txn) error {
		if t.next.sessionUserID != "" {
			t.setSession("")
		}
		return nil
	})
}

// SessionUser returns the current session user, if any.
func (s *Store) SessionUser(_ context.Context) (User, bool) {
	var (
		user  User
		found bool
	)
	s.view(func(state *rosterState) {
		if state.sessionUserID == "" {
			return
		}
		for _, u := range state.users {
			if u.ID == state.sessionUserID {
				user, found = u, true
				return
			}
		}
	})
	return user, found
}

func (t *txn) emailTaken(email, exceptID string) bool {
	for _, u := range t.next.users {
		if u.ID != exceptID && normalizeEmail(u.Email) == email {
			return true
		}
	}
	return false
}

func (t *txn) administratorCount() int {
	count := 0
	for _, u := range t.next.users {
		if u.IsAdmin() {
			count++
		}
	}
	return count
}

func validateEmail(vErr *ValidationError, email string) {
	if email == "" {
		vErr.add("email", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}
}

func removeRSVPsBy(rsvps []RSVP, userID string) []RSVP {
	kept := rsvps[:0]
	for _, r := range rsvps {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	return kept
}
