package application

import "context"

// ListNotifications returns the user's feed, newest first.
func (s *Store) ListNotifications(_ context.Context, userID string) []Notification {
	var out []Notification
	s.view(func(state *rosterState) {
		for _, n := range state.notifications {
			if n.RecipientID == userID {
				out = append(out, n)
			}
		}
	})
	return out
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *Store) UnreadCount(_ context.Context, userID string) int {
	count := 0
	s.view(func(state *rosterState) {
		for _, n := range state.notifications {
			if n.RecipientID == userID && !n.Read {
				count++
			}
		}
	})
	return count
}

// GetNotification returns one notification.
func (s *Store) GetNotification(_ context.Context, id string) (Notification, error) {
	var (
		out   Notification
		found bool
	)
	s.view(func(state *rosterState) {
		for _, n := range state.notifications {
			if n.ID == id {
				out, found = n, true
				return
			}
		}
	})
	if !found {
		return Notification{}, ErrNotFound
	}
	return out, nil
}

// MarkRead flags a notification as read. Unknown ids and notifications that
// are already read are ignored.
func (s *Store) MarkRead(ctx context.Context, notificationID string) error {
	err := s.mutate(ctx, func(t *txn) error {
		for i, n := range t.next.notifications {
			if n.ID != notificationID {
				continue
			}
			if !n.Read {
				t.editNotifications()[i].Read = true
			}
			return nil
		}
		return nil
	})
	if err != nil {
		s.loggerWith(ctx, "MarkRead", "notification_id", notificationID).
			ErrorContext(ctx, "mark read failed", "error", err, "error_kind", ErrorKind(err))
	}
	return err
}

// MarkAllReadForUser flags every notification of the user as read.
func (s *Store) MarkAllReadForUser(ctx context.Context, userID string) error {
	err := s.mutate(ctx, func(t *txn) error {
		for i, n := range t.next.notifications {
			if n.RecipientID == userID && !n.Read {
				t.editNotifications()[i].Read = true
			}
		}
		return nil
	})
	if err != nil {
		s.loggerWith(ctx, "MarkAllReadForUser", "user_id", userID).
			ErrorContext(ctx, "mark all read failed", "error", err, "error_kind", ErrorKind(err))
	}
	return err
}
