package persistence

import "time"

// The records below describe the JSON stored under each snapshot key. Field
// names follow the browser client's local storage layout.

// ChannelRecord stores the per-channel toggles of one notification category.
type ChannelRecord struct {
	Toast bool `json:"toast"`
	Email bool `json:"email"`
}

// PreferencesRecord stores a user's notification preferences.
type PreferencesRecord struct {
	NewCompetitions ChannelRecord `json:"newCompetitions"`
	RSVPChanges     ChannelRecord `json:"rsvpChanges"`
	PaymentUpdates  ChannelRecord `json:"paymentUpdates"`
}

// UserRecord is one entry of the users list.
type UserRecord struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Role              string            `json:"role"`
	Status            string            `json:"status"`
	Preferences       PreferencesRecord `json:"preferences"`
	ProfilePictureURL string            `json:"profilePictureUrl,omitempty"`
	PasswordHash      string            `json:"passwordHash,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// RSVPRecord is one attendance response embedded in a competition.
type RSVPRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserRole  string    `json:"userRole"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentLogRecord is one entry of a competition's payment history.
type PaymentLogRecord struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Status    bool      `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentRecord is one document attached to a competition.
type DocumentRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	ContentRef string    `json:"url"`
	Timestamp  time.Time `json:"timestamp"`
}

// CompetitionRecord is one entry of the competitions list. Date is stored as
// YYYY-MM-DD.
type CompetitionRecord struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Date           string             `json:"date"`
	Location       string             `json:"location"`
	PoolType       string             `json:"poolType,omitempty"`
	Description    string             `json:"description"`
	Level          string             `json:"level"`
	IsPaid         bool               `json:"isPaid"`
	PaymentHistory []PaymentLogRecord `json:"paymentHistory"`
	RSVPs          []RSVPRecord       `json:"rsvps"`
	Documents      []DocumentRecord   `json:"documents"`
	CRAResponsible string             `json:"craResponsible"`
}

// NotificationRecord is one entry of the notification log.
type NotificationRecord struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	IsRead      bool      `json:"isRead"`
	LinkTo      string    `json:"linkTo,omitempty"`
}

// SessionRecord stores the current-session user pointer.
type SessionRecord struct {
	UserID string `json:"userId"`
}

// CommitteeMemberRecord is one CRA contact.
type CommitteeMemberRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// CommitteeRecord stores the CRA roster and institutional addresses.
type CommitteeRecord struct {
	Members             []CommitteeMemberRecord `json:"members"`
	TechnicalEmail      string                  `json:"technicalEmail"`
	AdministrativeEmail string                  `json:"administrativeEmail"`
}
