package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swimref/roster/internal/persistence"
)

// NotificationPublisher receives notifications after the mutation that created
// them has been persisted. Implementations must not block for long; they run
// on the caller's goroutine outside the store lock.
type NotificationPublisher interface {
	Publish(ctx context.Context, deliveries []Delivery)
}

// RetentionPolicy bounds the notification log. PerRecipient keeps only the
// newest entries of each recipient; zero keeps everything.
type RetentionPolicy struct {
	PerRecipient int
}

// DefaultRetention is applied when StoreConfig leaves Retention unset.
var DefaultRetention = RetentionPolicy{PerRecipient: 100}

// StoreConfig wires the store's collaborators. Adapter is required.
type StoreConfig struct {
	Adapter     persistence.Adapter
	Publisher   NotificationPublisher
	IDGenerator func() string
	Now         func() time.Time
	Retention   *RetentionPolicy
	// SeedPasswordHash is assigned to seed users when the user list falls back
	// to the seed dataset.
	SeedPasswordHash string
	// HashPassword hashes self-registration passwords. Defaults to argon2id.
	HashPassword func(password string) (string, error)
	Logger       *slog.Logger
}

// Store is the roster: users, competitions with their RSVPs, payment history
// and documents, the notification log, the committee and the session pointer.
// Every mutation is serialized, persisted through the adapter before it
// becomes visible, and publishes the notifications it created afterwards.
type Store struct {
	mu    sync.RWMutex
	state rosterState

	adapter          persistence.Adapter
	publisher        NotificationPublisher
	idGenerator      func() string
	now              func() time.Time
	retention        RetentionPolicy
	seedPasswordHash string
	hashPassword     func(string) (string, error)
	logger           *slog.Logger
	stats            *statsCache
}

type rosterState struct {
	users         []User
	competitions  []Competition
	notifications []Notification
	committee     Committee
	sessionUserID string
}

// NewStore constructs an empty store. Call Load before serving requests.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Adapter == nil {
		return nil, errors.New("store: persistence adapter is required")
	}
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	retention := DefaultRetention
	if cfg.Retention != nil {
		retention = *cfg.Retention
	}
	if retention.PerRecipient < 0 {
		retention.PerRecipient = 0
	}
	hashPassword := cfg.HashPassword
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	return &Store{
		adapter:          cfg.Adapter,
		publisher:        cfg.Publisher,
		idGenerator:      idGenerator,
		now:              now,
		retention:        retention,
		seedPasswordHash: cfg.SeedPasswordHash,
		hashPassword:     hashPassword,
		logger:           defaultLogger(cfg.Logger),
		stats:            newStatsCache(32),
	}, nil
}

func (s *Store) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "Store", operation, attrs...)
}

// Load reads every snapshot key. A key that is absent or cannot be decoded
// falls back to the seed dataset for that collection and the seed is written
// back. Adapter failures other than ErrNotFound abort the load.
func (s *Store) Load(ctx context.Context) error {
	logger := s.loggerWith(ctx, "Load")

	var (
		users         []User
		competitions  []Competition
		notifications []Notification
		committee     Committee
		sessionUserID string
		seeded        = make([]bool, len(persistence.SnapshotKeys))
	)

	decoders := map[string]func([]byte) error{
		persistence.KeyUsers: func(blob []byte) (err error) {
			users, err = decodeUsers(blob)
			return err
		},
		persistence.KeyCompetitions: func(blob []byte) (err error) {
			competitions, err = decodeCompetitions(blob)
			return err
		},
		persistence.KeyNotifications: func(blob []byte) (err error) {
			notifications, err = decodeNotifications(blob)
			return err
		},
		persistence.KeyCommittee: func(blob []byte) (err error) {
			committee, err = decodeCommittee(blob)
			return err
		},
		persistence.KeyCurrentUser: func(blob []byte) (err error) {
			sessionUserID, err = decodeSession(blob)
			return err
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range persistence.SnapshotKeys {
		g.Go(func() error {
			blob, err := s.adapter.Load(gctx, key)
			switch {
			case errors.Is(err, persistence.ErrNotFound):
				seeded[i] = true
				return nil
			case err != nil:
				return fmt.Errorf("load %s: %w", key, err)
			}
			if err := decoders[key](blob); err != nil {
				logger.WarnContext(ctx, "discarding unreadable snapshot", "key", key, "error", err)
				seeded[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "snapshot load failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	t := &txn{store: s, dirty: make(map[string]bool)}
	for i, key := range persistence.SnapshotKeys {
		if !seeded[i] {
			continue
		}
		switch key {
		case persistence.KeyUsers:
			users = seedUsers(s.seedPasswordHash, s.now())
		case persistence.KeyCompetitions:
			competitions = seedCompetitions()
		case persistence.KeyNotifications:
			notifications = nil
		case persistence.KeyCommittee:
			committee = seedCommittee()
		case persistence.KeyCurrentUser:
			// No session is the seed state and is represented by an absent key.
			continue
		}
		t.dirty[key] = true
		logger.InfoContext(ctx, "seeding collection", "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.next = rosterState{
		users:         users,
		competitions:  competitions,
		notifications: notifications,
		committee:     committee,
		sessionUserID: sessionUserID,
	}
	if err := t.persist(ctx); err != nil {
		logger.ErrorContext(ctx, "persisting seed failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.state = t.next
	s.stats.Invalidate()
	logger.InfoContext(ctx, "roster loaded",
		"users", len(users),
		"competitions", len(competitions),
		"notifications", len(notifications),
	)
	return nil
}

// mutate runs fn against a working copy of the state. When fn succeeds the
// touched collections are persisted and the copy replaces the live state;
// otherwise the live state is left untouched. Notifications created by fn are
// published after the lock is released.
func (s *Store) mutate(ctx context.Context, fn func(t *txn) error) error {
	s.mu.Lock()
	t := &txn{
		store: s,
		next:  s.state,
		now:   s.now(),
		dirty: make(map[string]bool),
	}
	if err := fn(t); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := t.persist(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = t.next
	if len(t.dirty) > 0 {
		s.stats.Invalidate()
	}
	deliveries := t.deliveries()
	s.mu.Unlock()

	if s.publisher != nil && len(deliveries) > 0 {
		s.publisher.Publish(ctx, deliveries)
	}
	return nil
}

// view runs fn under the read lock.
func (s *Store) view(fn func(state *rosterState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// txn is the working copy of one mutation. Collections are cloned the first
// time they are edited so untouched collections are shared with the live
// state and are not rewritten.
type txn struct {
	store   *Store
	next    rosterState
	now     time.Time
	dirty   map[string]bool
	created []Notification
}

func (t *txn) editUsers() []User {
	if !t.dirty[persistence.KeyUsers] {
		t.next.users = cloneUsers(t.next.users)
		t.dirty[persistence.KeyUsers] = true
	}
	return t.next.users
}

func (t *txn) editCompetitions() []Competition {
	if !t.dirty[persistence.KeyCompetitions] {
		t.next.competitions = cloneCompetitions(t.next.competitions)
		t.dirty[persistence.KeyCompetitions] = true
	}
	return t.next.competitions
}

func (t *txn) editNotifications() []Notification {
	if !t.dirty[persistence.KeyNotifications] {
		t.next.notifications = cloneNotifications(t.next.notifications)
		t.dirty[persistence.KeyNotifications] = true
	}
	return t.next.notifications
}

func (t *txn) editCommittee() *Committee {
	if !t.dirty[persistence.KeyCommittee] {
		t.next.committee = cloneCommittee(t.next.committee)
		t.dirty[persistence.KeyCommittee] = true
	}
	return &t.next.committee
}

func (t *txn) setSession(userID string) {
	t.next.sessionUserID = userID
	t.dirty[persistence.KeyCurrentUser] = true
}

func (t *txn) newID() string {
	return t.store.idGenerator()
}

func (t *txn) userIndex(id string) int {
	for i := range t.next.users {
		if t.next.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *txn) competitionIndex(id string) int {
	for i := range t.next.competitions {
		if t.next.competitions[i].ID == id {
			return i
		}
	}
	return -1
}

// notify prepends a notification to the log and enforces the retention
// policy for its recipient. Preferences are not consulted here; delivery
// channels apply them.
func (t *txn) notify(recipientID, title, message string, severity Severity, category Category, linkTo string) Notification {
	n := Notification{
		ID:          t.newID(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Category:    category,
		Severity:    severity,
		CreatedAt:   t.now,
		LinkTo:      linkTo,
	}
	log := t.editNotifications()
	log = append(log, Notification{})
	copy(log[1:], log)
	log[0] = n
	t.next.notifications = applyRetention(log, recipientID, t.store.retention)
	t.created = append(t.created, n)
	return n
}

func applyRetention(log []Notification, recipientID string, policy RetentionPolicy) []Notification {
	if policy.PerRecipient <= 0 {
		return log
	}
	kept := log[:0]
	seen := 0
	for _, n := range log {
		if n.RecipientID == recipientID {
			seen++
			if seen > policy.PerRecipient {
				continue
			}
		}
		kept = append(kept, n)
	}
	return kept
}

// deliveries pairs the notifications created by this mutation with their
// recipients. Notifications whose recipient no longer exists are skipped.
func (t *txn) deliveries() []Delivery {
	if len(t.created) == 0 {
		return nil
	}
	out := make([]Delivery, 0, len(t.created))
	for _, n := range t.created {
		idx := t.userIndex(n.RecipientID)
		if idx < 0 {
			continue
		}
		out = append(out, Delivery{Notification: n, Recipient: t.next.users[idx]})
	}
	return out
}

// persist writes every dirty collection in a fixed order.
func (t *txn) persist(ctx context.Context) error {
	for _, key := range persistence.SnapshotKeys {
		if !t.dirty[key] {
			continue
		}
		if err := t.persistKey(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) persistKey(ctx context.Context, key string) error {
	var (
		blob []byte
		err  error
	)
	switch key {
	case persistence.KeyUsers:
		blob, err = encodeUsers(t.next.users)
	case persistence.KeyCompetitions:
		blob, err = encodeCompetitions(t.next.competitions)
	case persistence.KeyNotifications:
		blob, err = encodeNotifications(t.next.notifications)
	case persistence.KeyCommittee:
		blob, err = encodeCommittee(t.next.committee)
	case persistence.KeyCurrentUser:
		if t.next.sessionUserID == "" {
			if err := t.store.adapter.Delete(ctx, key); err != nil {
				return fmt.Errorf("persist %s: %w", key, err)
			}
			return nil
		}
		blob, err = encodeSession(t.next.sessionUserID)
	default:
		return fmt.Errorf("persist: unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := t.store.adapter.Save(ctx, key, blob); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func cloneUsers(in []User) []User {
	if in == nil {
		return nil
	}
	out := make([]User, len(in))
	copy(out, in)
	return out
}

func cloneCompetitions(in []Competition) []Competition {
	if in == nil {
		return nil
	}
	out := make([]Competition, len(in))
	for i, c := range in {
		out[i] = cloneCompetition(c)
	}
	return out
}

func cloneCompetition(c Competition) Competition {
	c.RSVPs = append([]RSVP(nil), c.RSVPs...)
	c.PaymentHistory = append([]PaymentLogEntry(nil), c.PaymentHistory...)
	c.Documents = append([]CompetitionDocument(nil), c.Documents...)
	return c
}

func cloneNotifications(in []Notification) []Notification {
	if in == nil {
		return nil
	}
	out := make([]Notification, len(in))
	copy(out, in)
	return out
}

func cloneCommittee(c Committee) Committee {
	c.Members = append([]CommitteeMember(nil), c.Members...)
	return c
}
