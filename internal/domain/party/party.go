package party

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("party: id is required")
	ErrEmailRequired       = errors.New("party: email is required")
	ErrPasswordHashMissing = errors.New("party: password hash is required")
	ErrNameRequired        = errors.New("party: name is required")
	ErrEmailAlreadyUsed    = errors.New("party: email already used")
	ErrNotFound            = errors.New("party: not found")
)

type ID string

type Role string

const (
	RoleRenter Role = "renter"
	RoleHost   Role = "host"
)

// Party is a resolved participant: a renter or host for reservations, a
// buyer or seller for sales. The engine only ever sees party ids; external
// identity lives behind the auth layer.
type Party struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Party, error)
	ByEmail(ctx context.Context, email string) (*Party, error)
	Save(ctx context.Context, p *Party) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	Now          time.Time
}

func New(params CreateParams) (*Party, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	roles := params.Roles
	if len(roles) == 0 {
		roles = []Role{RoleRenter}
	}
	return &Party{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Roles:        append([]Role(nil), roles...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Party) HasRole(role Role) bool {
	for _, current := range p.Roles {
		if current == role {
			return true
		}
	}
	return false
}

func (p *Party) EnsureRole(role Role, now time.Time) {
	if p.HasRole(role) {
		return
	}
	p.Roles = append(p.Roles, role)
	p.UpdatedAt = now.UTC()
}
