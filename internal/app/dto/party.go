package dto

import (
	"time"

	domainparty "haulshare/internal/domain/party"
)

type PartyProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResponse struct {
	Party PartyProfile `json:"party"`
	Token string       `json:"token"`
}

func MapPartyProfile(p *domainparty.Party) PartyProfile {
	if p == nil {
		return PartyProfile{}
	}
	roles := make([]string, 0, len(p.Roles))
	for _, role := range p.Roles {
		roles = append(roles, string(role))
	}
	return PartyProfile{
		ID:        string(p.ID),
		Email:     p.Email,
		Name:      p.Name,
		Roles:     roles,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewAuthResponse(p *domainparty.Party, token string) AuthResponse {
	return AuthResponse{
		Party: MapPartyProfile(p),
		Token: token,
	}
}
