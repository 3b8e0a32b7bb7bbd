package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "haulshare/internal/domain/auth"
	domainparty "haulshare/internal/domain/party"
)

// PartyRepository stores parties in memory. Not suitable for production.
type PartyRepository struct {
	mu      sync.RWMutex
	byID    map[domainparty.ID]*domainparty.Party
	byEmail map[string]domainparty.ID
}

func NewPartyRepository() *PartyRepository {
	return &PartyRepository{
		byID:    make(map[domainparty.ID]*domainparty.Party),
		byEmail: make(map[string]domainparty.ID),
	}
}

func (r *PartyRepository) ByID(ctx context.Context, id domainparty.ID) (*domainparty.Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byID[id]; ok {
		return cloneParty(p), nil
	}
	return nil, domainparty.ErrNotFound
}

func (r *PartyRepository) ByEmail(ctx context.Context, email string) (*domainparty.Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domainparty.ErrNotFound
	}
	if p, ok := r.byID[id]; ok {
		return cloneParty(p), nil
	}
	return nil, domainparty.ErrNotFound
}

func (r *PartyRepository) Save(ctx context.Context, p *domainparty.Party) error {
	if p == nil {
		return domainparty.ErrIDRequired
	}
	id := strings.TrimSpace(string(p.ID))
	if id == "" {
		return domainparty.ErrIDRequired
	}
	emailKey := strings.ToLower(strings.TrimSpace(p.Email))
	if emailKey == "" {
		return domainparty.ErrEmailRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, ok := r.byEmail[emailKey]; ok && existingID != p.ID {
		return domainparty.ErrEmailAlreadyUsed
	}
	r.byEmail[emailKey] = p.ID
	r.byID[p.ID] = cloneParty(p)
	return nil
}

func cloneParty(p *domainparty.Party) *domainparty.Party {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Roles = append([]domainparty.Role(nil), p.Roles...)
	return &copied
}

// SessionStore keeps bearer sessions in memory.
type SessionStore struct {
	mu         sync.RWMutex
	tokens     map[domainauth.Token]*domainauth.Session
	partyIndex map[domainparty.ID]map[domainauth.Token]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens:     make(map[domainauth.Token]*domainauth.Session),
		partyIndex: make(map[domainparty.ID]map[domainauth.Token]struct{}),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = cloneSession(session)
	if _, ok := s.partyIndex[session.PartyID]; !ok {
		s.partyIndex[session.PartyID] = make(map[domainauth.Token]struct{})
	}
	s.partyIndex[session.PartyID][session.Token] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	if index, ok := s.partyIndex[session.PartyID]; ok {
		delete(index, token)
		if len(index) == 0 {
			delete(s.partyIndex, session.PartyID)
		}
	}
	return nil
}

func (s *SessionStore) DeleteByParty(ctx context.Context, partyID domainparty.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.partyIndex[partyID]
	if !ok {
		return nil
	}
	for token := range index {
		delete(s.tokens, token)
	}
	delete(s.partyIndex, partyID)
	return nil
}

func cloneSession(s *domainauth.Session) *domainauth.Session {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

var _ domainparty.Repository = (*PartyRepository)(nil)
var _ domainauth.SessionStore = (*SessionStore)(nil)
