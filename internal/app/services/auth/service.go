package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "haulshare/internal/domain/auth"
	domainparty "haulshare/internal/domain/party"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service is the identity resolver: it maps bearer tokens to internal party
// ids. The engine never sees raw credentials, only resolved parties.
type Service struct {
	Parties    domainparty.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type RegisterParams struct {
	Email      string
	Name       string
	Password   string
	WantToHost bool
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	Party *domainparty.Party
	Token string
}

type ResolveResult struct {
	Party   *domainparty.Party
	Session *domainauth.Session
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	name := strings.TrimSpace(params.Name)
	if email == "" {
		return nil, domainparty.ErrEmailRequired
	}
	if name == "" {
		return nil, domainparty.ErrNameRequired
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if existing, err := s.Parties.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, domainparty.ErrEmailAlreadyUsed
	} else if err != nil && !errors.Is(err, domainparty.ErrNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	roles := []domainparty.Role{domainparty.RoleRenter}
	if params.WantToHost {
		roles = append(roles, domainparty.RoleHost)
	}
	p, err := domainparty.New(domainparty.CreateParams{
		ID:           domainparty.ID(uuid.NewString()),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        roles,
		Now:          time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Parties.Save(ctx, p); err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("party registered", "party_id", p.ID, "roles", p.Roles)
	}
	return &AuthResult{Party: p, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	p, err := s.Parties.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainparty.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(p.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("party authenticated", "party_id", p.ID)
	}
	return &AuthResult{Party: p, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	p, err := s.Parties.ByID(ctx, session.PartyID)
	if err != nil {
		_ = s.Sessions.Delete(ctx, session.Token)
		if errors.Is(err, domainparty.ErrNotFound) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return &ResolveResult{Party: p, Session: session}, nil
}

func (s *Service) issueSession(ctx context.Context, p *domainparty.Party) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:   domainauth.Token(token),
		PartyID: p.ID,
		TTL:     s.sessionTTL(),
		Now:     time.Now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Parties == nil:
		return errors.New("auth: party repository required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
