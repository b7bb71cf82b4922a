package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/swimref/roster/internal/persistence"
)

const competitionDateLayout = "2006-01-02"

func encodeUsers(users []User) ([]byte, error) {
	records := make([]persistence.UserRecord, len(users))
	for i, u := range users {
		records[i] = persistence.UserRecord{
			ID:                u.ID,
			Name:              u.Name,
			Email:             u.Email,
			Role:              string(u.Role),
			Status:            string(u.Status),
			Preferences:       toPreferencesRecord(u.Preferences),
			ProfilePictureURL: u.ProfilePictureURL,
			PasswordHash:      u.PasswordHash,
			CreatedAt:         u.CreatedAt,
			UpdatedAt:         u.UpdatedAt,
		}
	}
	return json.Marshal(records)
}

func decodeUsers(blob []byte) ([]User, error) {
	var records []persistence.UserRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	users := make([]User, len(records))
	for i, r := range records {
		role := Role(r.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("user %s: unknown role %q", r.ID, r.Role)
		}
		users[i] = User{
			ID:                r.ID,
			Name:              r.Name,
			Email:             r.Email,
			Role:              role,
			Status:            UserStatus(r.Status),
			Preferences:       fromPreferencesRecord(r.Preferences),
			ProfilePictureURL: r.ProfilePictureURL,
			PasswordHash:      r.PasswordHash,
			CreatedAt:         r.CreatedAt,
			UpdatedAt:         r.UpdatedAt,
		}
	}
	return users, nil
}

func toPreferencesRecord(p NotificationPreferences) persistence.PreferencesRecord {
	return persistence.PreferencesRecord{
		NewCompetitions: persistence.ChannelRecord(p.NewCompetitions),
		RSVPChanges:     persistence.ChannelRecord(p.RSVPChanges),
		PaymentUpdates:  persistence.ChannelRecord(p.PaymentUpdates),
	}
}

func fromPreferencesRecord(r persistence.PreferencesRecord) NotificationPreferences {
	return NotificationPreferences{
		NewCompetitions: Channel(r.NewCompetitions),
		RSVPChanges:     Channel(r.RSVPChanges),
		PaymentUpdates:  Channel(r.PaymentUpdates),
	}
}

func encodeCompetitions(competitions []Competition) ([]byte, error) {
	records := make([]persistence.CompetitionRecord, len(competitions))
	for i, c := range competitions {
		record := persistence.CompetitionRecord{
			ID:             c.ID,
			Name:           c.Name,
			Date:           c.Date.Format(competitionDateLayout),
			Location:       c.Location,
			PoolType:       string(c.PoolType),
			Description:    c.Description,
			Level:          string(c.Level),
			IsPaid:         c.IsPaid,
			PaymentHistory: make([]persistence.PaymentLogRecord, len(c.PaymentHistory)),
			RSVPs:          make([]persistence.RSVPRecord, len(c.RSVPs)),
			Documents:      make([]persistence.DocumentRecord, len(c.Documents)),
			CRAResponsible: c.CRAResponsible,
		}
		for j, p := range c.PaymentHistory {
			record.PaymentHistory[j] = persistence.PaymentLogRecord{
				ID:        p.ID,
				UserName:  p.ActorName,
				Status:    p.Paid,
				Timestamp: p.Timestamp,
			}
		}
		for j, r := range c.RSVPs {
			record.RSVPs[j] = persistence.RSVPRecord{
				ID:        r.ID,
				UserID:    r.UserID,
				UserName:  r.UserName,
				UserRole:  string(r.UserRole),
				Status:    string(r.Status),
				Comment:   r.Comment,
				Timestamp: r.Timestamp,
			}
		}
		for j, d := range c.Documents {
			record.Documents[j] = persistence.DocumentRecord{
				ID:         d.ID,
				Name:       d.Name,
				Type:       d.MIMEType,
				Size:       d.Size,
				ContentRef: d.ContentRef,
				Timestamp:  d.UploadedAt,
			}
		}
		records[i] = record
	}
	return json.Marshal(records)
}

func decodeCompetitions(blob []byte) ([]Competition, error) {
	var records []persistence.CompetitionRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	competitions := make([]Competition, len(records))
	for i, r := range records {
		date, err := time.Parse(competitionDateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("competition %s: %w", r.ID, err)
		}
		c := Competition{
			ID:             r.ID,
			Name:           r.Name,
			Date:           date,
			Location:       r.Location,
			PoolType:       PoolType(r.PoolType),
			Description:    r.Description,
			Level:          Level(r.Level),
			IsPaid:         r.IsPaid,
			CRAResponsible: r.CRAResponsible,
		}
		for _, p := range r.PaymentHistory {
			c.PaymentHistory = append(c.PaymentHistory, PaymentLogEntry{
				ID:        p.ID,
				ActorName: p.UserName,
				Paid:      p.Status,
				Timestamp: p.Timestamp,
			})
		}
		for _, rsvp := range r.RSVPs {
			c.RSVPs = append(c.RSVPs, RSVP{
				ID:        rsvp.ID,
				UserID:    rsvp.UserID,
				UserName:  rsvp.UserName,
				UserRole:  Role(rsvp.UserRole),
				Status:    RSVPStatus(rsvp.Status),
				Comment:   rsvp.Comment,
				Timestamp: rsvp.Timestamp,
			})
		}
		for _, d := range r.Documents {
			c.Documents = append(c.Documents, CompetitionDocument{
				ID:         d.ID,
				Name:       d.Name,
				MIMEType:   d.Type,
				Size:       d.Size,
				ContentRef: d.ContentRef,
				UploadedAt: d.Timestamp,
			})
		}
		competitions[i] = c
	}
	return competitions, nil
}

func encodeNotifications(notifications []Notification) ([]byte, error) {
	records := make([]persistence.NotificationRecord, len(notifications))
	for i, n := range notifications {
		records[i] = persistence.NotificationRecord{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Title:       n.Title,
			Message:     n.Message,
			Type:        string(n.Severity),
			Category:    string(n.Category),
			Timestamp:   n.CreatedAt,
			IsRead:      n.Read,
			LinkTo:      n.LinkTo,
		}
	}
	return json.Marshal(records)
}

func decodeNotifications(blob []byte) ([]Notification, error) {
	var records []persistence.NotificationRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	notifications := make([]Notification, len(records))
	for i, r := range records {
		notifications[i] = Notification{
			ID:          r.ID,
			RecipientID: r.RecipientID,
			Title:       r.Title,
			Message:     r.Message,
			Category:    Category(r.Category),
			Severity:    Severity(r.Type),
			CreatedAt:   r.Timestamp,
			Read:        r.IsRead,
			LinkTo:      r.LinkTo,
		}
	}
	return notifications, nil
}

func encodeCommittee(c Committee) ([]byte, error) {
	record := persistence.CommitteeRecord{
		Members:             make([]persistence.CommitteeMemberRecord, len(c.Members)),
		TechnicalEmail:      c.Config.TechnicalEmail,
		AdministrativeEmail: c.Config.AdministrativeEmail,
	}
	for i, m := range c.Members {
		record.Members[i] = persistence.CommitteeMemberRecord(m)
	}
	return json.Marshal(record)
}

func decodeCommittee(blob []byte) (Committee, error) {
	var record persistence.CommitteeRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return Committee{}, err
	}
	c := Committee{
		Members: make([]CommitteeMember, len(record.Members)),
		Config: CommitteeConfig{
			TechnicalEmail:      record.TechnicalEmail,
			AdministrativeEmail: record.AdministrativeEmail,
		},
	}
	for i, m := range record.Members {
		c.Members[i] = CommitteeMember(m)
	}
	return c, nil
}

func encodeSession(userID string) ([]byte, error) {
	return json.Marshal(persistence.SessionRecord{UserID: userID})
}

func decodeSession(blob []byte) (string, error) {
	var record persistence.SessionRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return "", err
	}
	return record.UserID, nil
}
