package testfixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/swimref/roster/internal/persistence"
)

var (
	userCounter        uint64
	competitionCounter uint64
	rsvpCounter        uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user record.
type UserOption func(*persistence.UserRecord)

// NewUserRecord returns a deterministic approved referee with optional
// overrides.
func NewUserRecord(opts ...UserOption) persistence.UserRecord {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	record := persistence.UserRecord{
		ID:     id,
		Name:   fmt.Sprintf("Árbitro %03d", idx),
		Email:  fmt.Sprintf("%s@natacao.pt", id),
		Role:   "Referee",
		Status: "Approved",
		Preferences: persistence.PreferencesRecord{
			NewCompetitions: persistence.ChannelRecord{Toast: true},
			RSVPChanges:     persistence.ChannelRecord{Toast: true, Email: true},
			PaymentUpdates:  persistence.ChannelRecord{Toast: true, Email: true},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(r *persistence.UserRecord) { r.ID = id }
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(r *persistence.UserRecord) { r.Name = name }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(r *persistence.UserRecord) { r.Email = email }
}

// AsAdministrator gives the user the administrator role.
func AsAdministrator() UserOption {
	return func(r *persistence.UserRecord) { r.Role = "Administrator" }
}

// AsPending marks the user as awaiting approval.
func AsPending() UserOption {
	return func(r *persistence.UserRecord) { r.Status = "Pending" }
}

// WithPasswordHash sets the stored credential.
func WithPasswordHash(hash string) UserOption {
	return func(r *persistence.UserRecord) { r.PasswordHash = hash }
}

// WithPreferences overrides the notification preferences.
func WithPreferences(prefs persistence.PreferencesRecord) UserOption {
	return func(r *persistence.UserRecord) { r.Preferences = prefs }
}

// -------------------------- Competition fixtures -------------------------

// CompetitionOption configures the generated competition record.
type CompetitionOption func(*persistence.CompetitionRecord)

// NewCompetitionRecord returns a deterministic unpaid regional competition.
func NewCompetitionRecord(opts ...CompetitionOption) persistence.CompetitionRecord {
	idx := atomic.AddUint64(&competitionCounter, 1)
	id := fmt.Sprintf("comp-%03d", idx)
	record := persistence.CompetitionRecord{
		ID:             id,
		Name:           fmt.Sprintf("Torneio %03d", idx),
		Date:           referenceTime.AddDate(0, 0, int(idx)).Format("2006-01-02"),
		Location:       "Piscina Municipal",
		PoolType:       "25m",
		Description:    "Prova de fixture.",
		Level:          "Regional",
		PaymentHistory: []persistence.PaymentLogRecord{},
		RSVPs:          []persistence.RSVPRecord{},
		Documents:      []persistence.DocumentRecord{},
		CRAResponsible: "Alexandre Alves",
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithCompetitionID overrides the generated competition ID.
func WithCompetitionID(id string) CompetitionOption {
	return func(r *persistence.CompetitionRecord) { r.ID = id }
}

// WithCompetitionName overrides the generated name.
func WithCompetitionName(name string) CompetitionOption {
	return func(r *persistence.CompetitionRecord) { r.Name = name }
}

// WithCompetitionDate sets the competition day.
func WithCompetitionDate(date time.Time) CompetitionOption {
	return func(r *persistence.CompetitionRecord) { r.Date = date.Format("2006-01-02") }
}

// WithPaid sets the paid flag.
func WithPaid(paid bool) CompetitionOption {
	return func(r *persistence.CompetitionRecord) { r.IsPaid = paid }
}

// WithRSVP appends an RSVP authored by user.
func WithRSVP(user persistence.UserRecord, status string) CompetitionOption {
	return func(r *persistence.CompetitionRecord) {
		idx := atomic.AddUint64(&rsvpCounter, 1)
		r.RSVPs = append(r.RSVPs, persistence.RSVPRecord{
			ID:        fmt.Sprintf("rsvp-%03d", idx),
			UserID:    user.ID,
			UserName:  user.Name,
			UserRole:  user.Role,
			Status:    status,
			Timestamp: referenceTime,
		})
	}
}

// ------------------------------- Snapshots -------------------------------

// Snapshot is a roster state written directly to an adapter.
type Snapshot struct {
	Users        []persistence.UserRecord
	Competitions []persistence.CompetitionRecord
	Committee    *persistence.CommitteeRecord
	SessionUser  string
}

// WriteSnapshot stores the snapshot under the roster keys. Nil collections
// are left absent so the store seeds them.
func WriteSnapshot(ctx context.Context, adapter persistence.Adapter, snap Snapshot) error {
	write := func(key string, v any) error {
		blob, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return adapter.Save(ctx, key, blob)
	}
	if snap.Users != nil {
		if err := write(persistence.KeyUsers, snap.Users); err != nil {
			return err
		}
	}
	if snap.Competitions != nil {
		if err := write(persistence.KeyCompetitions, snap.Competitions); err != nil {
			return err
		}
	}
	if snap.Committee != nil {
		if err := write(persistence.KeyCommittee, snap.Committee); err != nil {
			return err
		}
	}
	if snap.SessionUser != "" {
		if err := write(persistence.KeyCurrentUser, persistence.SessionRecord{UserID: snap.SessionUser}); err != nil {
			return err
		}
	}
	return nil
}
