package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
)

const defaultSessionMaxTTL = 24 * time.Hour

// SessionStore owns the persisted credential and identity of one browser
// session. It is the only writer of the session's persisted fields.
type SessionStore struct {
	repo   ports.SessionRepository
	sid    string
	maxTTL time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	state       domain.Session
	locale      string
	refreshedAt time.Time
	subscribers map[int]func(domain.Session)
	nextSub     int
}

// NewSessionStore returns an unauthenticated store for session sid.
func NewSessionStore(repo ports.SessionRepository, sid string, maxTTL time.Duration, log zerolog.Logger) *SessionStore {
	if maxTTL <= 0 {
		maxTTL = defaultSessionMaxTTL
	}
	return &SessionStore{
		repo:        repo,
		sid:         sid,
		maxTTL:      maxTTL,
		log:         log.With().Str("component", "session_store").Logger(),
		now:         time.Now,
		state:       domain.Session{Status: domain.StatusUnauthenticated},
		subscribers: make(map[int]func(domain.Session)),
	}
}

// SID returns the opaque session id the store is bound to.
func (s *SessionStore) SID() string { return s.sid }

// Restore loads the persisted session. An expired credential is cleared and
// reported as domain.ErrSessionExpired alongside the unauthenticated session.
func (s *SessionStore) Restore(ctx context.Context) (domain.Session, error) {
	s.transition(domain.Session{Status: domain.StatusResolving})

	fields, err := s.repo.Load(ctx, s.sid)
	if err != nil {
		s.transition(domain.Session{Status: domain.StatusUnauthenticated})
		return s.Current(), fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	s.locale = fields[domain.FieldLocale]
	s.refreshedAt = parseUnix(fields[domain.FieldRefreshedAt])
	s.mu.Unlock()

	token := fields[domain.FieldToken]
	if token == "" {
		s.transition(domain.Session{Status: domain.StatusUnauthenticated})
		return s.Current(), nil
	}

	if _, _, err := domain.CredentialExpiry(token); err != nil {
		s.log.Warn().Err(err).Str("sid", s.sid).Msg("undecodable credential cleared")
		if err := s.Clear(ctx); err != nil {
			return s.Current(), err
		}
		return s.Current(), nil
	}

	if domain.IsExpired(token, s.now()) || fields[domain.FieldUserID] == "" {
		expired := fields[domain.FieldUserID] != ""
		if err := s.Clear(ctx); err != nil {
			return s.Current(), err
		}
		if expired {
			return s.Current(), domain.ErrSessionExpired
		}
		return s.Current(), nil
	}

	identity := identityFromFields(fields)
	s.transition(domain.Session{Credential: token, Identity: &identity, Status: domain.StatusAuthenticated})
	return s.Current(), nil
}

// Commit persists a freshly issued credential with its identity.
func (s *SessionStore) Commit(ctx context.Context, credential string, identity domain.Identity) error {
	if err := domain.ValidateIdentity(identity); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	if credential == "" {
		return fmt.Errorf("commit session: missing access token: %w", domain.ErrInvalidIdentity)
	}
	if _, _, err := domain.CredentialExpiry(credential); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	now := s.now()
	if domain.IsExpired(credential, now) {
		return fmt.Errorf("commit session: %w", domain.ErrSessionExpired)
	}

	identity = identity.WithDefaults()
	fields := identityFields(identity)
	fields[domain.FieldToken] = credential
	fields[domain.FieldRefreshedAt] = strconv.FormatInt(now.Unix(), 10)

	s.mu.RLock()
	if s.locale != "" {
		fields[domain.FieldLocale] = s.locale
	}
	s.mu.RUnlock()

	if err := s.repo.Save(ctx, s.sid, fields, s.ttlFor(credential)); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}

	s.mu.Lock()
	s.refreshedAt = now
	s.mu.Unlock()

	s.transition(domain.Session{Credential: credential, Identity: &identity, Status: domain.StatusAuthenticated})
	return nil
}

// Clear erases the credential and identity fields. The chosen locale is
// kept. Clearing an empty session is a no-op apart from the repository call.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.sid, domain.CredentialFields...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	s.refreshedAt = time.Time{}
	s.mu.Unlock()

	s.transition(domain.Session{Status: domain.StatusUnauthenticated})
	return nil
}

// Reconcile writes a refreshed identity, but only while credential is still
// the persisted one. It reports whether the write was applied.
func (s *SessionStore) Reconcile(ctx context.Context, credential string, identity domain.Identity) (bool, error) {
	if err := domain.ValidateIdentity(identity); err != nil {
		return false, fmt.Errorf("reconcile session: %w", err)
	}
	identity = identity.WithDefaults()
	now := s.now()
	fields := identityFields(identity)
	fields[domain.FieldRefreshedAt] = strconv.FormatInt(now.Unix(), 10)

	applied, err := s.repo.SaveIfToken(ctx, s.sid, credential, fields)
	if err != nil {
		return false, fmt.Errorf("reconcile session: %w", err)
	}
	if !applied {
		return false, nil
	}

	s.mu.Lock()
	current := s.state.Credential
	if current == credential {
		s.refreshedAt = now
	}
	s.mu.Unlock()

	if current == credential {
		s.transition(domain.Session{Credential: credential, Identity: &identity, Status: domain.StatusAuthenticated})
	}
	return true, nil
}

// SetLocale persists the preferred locale of the session.
func (s *SessionStore) SetLocale(ctx context.Context, locale string) error {
	s.mu.RLock()
	credential := s.state.Credential
	s.mu.RUnlock()

	ttl := s.maxTTL
	if credential != "" {
		ttl = s.ttlFor(credential)
	}
	if err := s.repo.Set(ctx, s.sid, map[string]string{domain.FieldLocale: locale}, ttl); err != nil {
		return fmt.Errorf("set locale: %w", err)
	}

	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the session state.
func (s *SessionStore) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if out.Identity != nil {
		id := *out.Identity
		out.Identity = &id
	}
	return out
}

// Credential returns the current bearer token, or "".
func (s *SessionStore) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Credential
}

// Identity returns the current identity when the session is authenticated.
func (s *SessionStore) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Identity == nil {
		return domain.Identity{}, false
	}
	return *s.state.Identity, true
}

// Locale returns the persisted locale, or "" when none was chosen.
func (s *SessionStore) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// RefreshedAt returns when the identity was last reconciled with the API.
func (s *SessionStore) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Subscribe registers fn for every session transition. Callbacks run
// synchronously on the goroutine that caused the transition.
func (s *SessionStore) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) transition(next domain.Session) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	subs := make([]func(domain.Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if prev.Status != next.Status {
		s.log.Debug().
			Str("sid", s.sid).
			Str("from", string(prev.Status)).
			Str("to", string(next.Status)).
			Msg("session transition")
	}

	snapshot := s.Current()
	for _, fn := range subs {
		fn(snapshot)
	}
}

// ttlFor keeps persisted fields no longer than the credential lives.
func (s *SessionStore) ttlFor(credential string) time.Duration {
	exp, ok, err := domain.CredentialExpiry(credential)
	if err != nil || !ok {
		return s.maxTTL
	}
	ttl := exp.Sub(s.now())
	if ttl <= 0 || ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}

func identityFields(id domain.Identity) map[string]string {
	return map[string]string{
		domain.FieldUserID:     id.ID,
		domain.FieldUserName:   id.Name,
		domain.FieldUserEmail:  id.Email,
		domain.FieldUserRole:   id.Role.Name,
		domain.FieldUserRoleID: id.Role.ID,
	}
}

func identityFromFields(fields map[string]string) domain.Identity {
	return domain.Identity{
		ID:    fields[domain.FieldUserID],
		Name:  orDefault(fields[domain.FieldUserName], domain.FallbackName),
		Email: orDefault(fields[domain.FieldUserEmail], domain.FallbackEmail),
		Role: domain.RoleRef{
			ID:   orDefault(fields[domain.FieldUserRoleID], domain.FallbackRoleID),
			Name: orDefault(fields[domain.FieldUserRole], domain.FallbackRoleName),
		},
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseUnix(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
