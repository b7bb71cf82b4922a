package application

import (
	"strings"
	"time"
)

// Role distinguishes administrators from referees.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleReferee       Role = "Referee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleReferee
}

// UserStatus tracks account approval. The only transition is Pending -> Approved.
type UserStatus string

const (
	StatusPending  UserStatus = "Pending"
	StatusApproved UserStatus = "Approved"
)

// RSVPStatus is a referee's answer for one competition. Values are freely
// reassignable.
type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "Attending"
	RSVPNotAttending RSVPStatus = "Not Attending"
	RSVPPending      RSVPStatus = "Pending"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPAttending, RSVPNotAttending, RSVPPending:
		return true
	}
	return false
}

// Label returns the Portuguese wording shown to officials.
func (s RSVPStatus) Label() string {
	switch s {
	case RSVPAttending:
		return "Confirmado"
	case RSVPNotAttending:
		return "Indisponível"
	case RSVPPending:
		return "Pendente"
	}
	return string(s)
}

// Category groups notifications for preference gating. The empty category is
// allowed and means "uncategorized".
type Category string

const (
	CategoryNone           Category = ""
	CategoryNewCompetition Category = "newCompetition"
	CategoryRSVPChange     Category = "rsvpChange"
	CategoryPaymentUpdate  Category = "paymentUpdate"
)

// Severity controls how a notification is rendered.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Level is the competition classification.
type Level string

const (
	LevelClub          Level = "Clube"
	LevelRegional      Level = "Regional"
	LevelNational      Level = "Nacional"
	LevelInternational Level = "Internacional"
)

// PoolType is the course length of the venue.
type PoolType string

const (
	PoolShortCourse PoolType = "25m"
	PoolLongCourse  PoolType = "50m"
)

// Channel holds the per-channel toggles of one notification category.
type Channel struct {
	Toast bool
	Email bool
}

// NotificationPreferences toggles each category independently per channel.
type NotificationPreferences struct {
	NewCompetitions Channel
	RSVPChanges     Channel
	PaymentUpdates  Channel
}

// DefaultPreferences returns the preferences assigned to new accounts.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		NewCompetitions: Channel{Toast: true, Email: false},
		RSVPChanges:     Channel{Toast: true, Email: true},
		PaymentUpdates:  Channel{Toast: true, Email: true},
	}
}

// For returns the channel toggles for category. ok is false for
// uncategorized notifications.
func (p NotificationPreferences) For(category Category) (Channel, bool) {
	switch category {
	case CategoryNewCompetition:
		return p.NewCompetitions, true
	case CategoryRSVPChange:
		return p.RSVPChanges, true
	case CategoryPaymentUpdate:
		return p.PaymentUpdates, true
	}
	return Channel{}, false
}

// User is a registered official or administrator.
type User struct {
	ID                string
	Name              string
	Email             string
	Role              Role
	Status            UserStatus
	Preferences       NotificationPreferences
	ProfilePictureURL string
	PasswordHash      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

// RSVP is one user's answer for a competition. UserName and UserRole are a
// snapshot taken when the answer was given and are never refreshed, so the
// roster reflects who answered at that time even after profile edits.
type RSVP struct {
	ID        string
	UserID    string
	UserName  string
	UserRole  Role
	Status    RSVPStatus
	Comment   string
	Timestamp time.Time
}

// PaymentLogEntry records one flip of a competition's paid flag.
type PaymentLogEntry struct {
	ID        string
	ActorName string
	Paid      bool
	Timestamp time.Time
}

// CompetitionDocument is an attachment. ContentRef is an opaque handle issued
// by the content store.
type CompetitionDocument struct {
	ID         string
	Name       string
	MIMEType   string
	Size       int64
	ContentRef string
	UploadedAt time.Time
}

// DocumentMeta describes an upload before it is stored.
type DocumentMeta struct {
	Name     string
	MIMEType string
	Size     int64
}

// Competition is a swim meet requiring officials.
type Competition struct {
	ID             string
	Name           string
	Date           time.Time
	Location       string
	PoolType       PoolType
	Description    string
	Level          Level
	IsPaid         bool
	CRAResponsible string
	PaymentHistory []PaymentLogEntry
	Documents      []CompetitionDocument
	RSVPs          []RSVP
}

// RSVPFor returns the RSVP authored by userID, if any.
func (c Competition) RSVPFor(userID string) (RSVP, bool) {
	for _, r := range c.RSVPs {
		if r.UserID == userID {
			return r, true
		}
	}
	return RSVP{}, false
}

// Notification is one entry in a user's feed.
type Notification struct {
	ID          string
	RecipientID string
	Title       string
	Message     string
	Category    Category
	Severity    Severity
	CreatedAt   time.Time
	Read        bool
	LinkTo      string
}

// Delivery pairs a freshly created notification with the recipient's state at
// creation time so delivery channels can apply preference gates.
type Delivery struct {
	Notification Notification
	Recipient    User
}

// CommitteeMember is a contact on the refereeing committee (CRA).
type CommitteeMember struct {
	ID       string
	Name     string
	Role     string
	Email    string
	Phone    string
	PhotoURL string
}

// CommitteeConfig holds the committee's institutional addresses.
type CommitteeConfig struct {
	TechnicalEmail      string
	AdministrativeEmail string
}

// Committee bundles the roster with its configuration.
type Committee struct {
	Members []CommitteeMember
	Config  CommitteeConfig
}

// Principal identifies the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdministrator
}

// RegisterUserInput carries self-registration fields.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// CompetitionInput carries create/edit fields. IsPaid nil keeps the stored
// flag on edit and means unpaid on create. ActorName is recorded in the
// payment history when the flag changes.
type CompetitionInput struct {
	ID             string
	Name           string
	Date           time.Time
	Location       string
	PoolType       PoolType
	Description    string
	Level          Level
	IsPaid         *bool
	CRAResponsible string
	ActorName      string
}

// ProfilePatch replaces the non-nil profile fields.
type ProfilePatch struct {
	Name              *string
	Email             *string
	ProfilePictureURL *string
}

// Dashboard is the per-user landing view.
type Dashboard struct {
	UpcomingConfirmed   []Competition
	PendingInvitations  []Competition
	RecentNotifications []Notification
	AttendedThisYear    int
	UnreadCount         int
}

// RefereeStats is one referee's attendance for a season.
type RefereeStats struct {
	UserID     string
	Name       string
	Email      string
	Attended   int
	Total      int
	Percentage int
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
