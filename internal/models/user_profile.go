package models

import "time"

type UserProfile struct {
	OrgID            string    `json:"org_id"`
	UserID           string    `json:"user_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	IsAlumni         bool      `json:"is_alumni"`
	IsCoachingClient bool      `json:"is_coaching_client"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *UserProfile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Email
	}
	return name
}

type OrgMember struct {
	OrgID             string    `json:"org_id"`
	UserID            string    `json:"user_id"`
	Role              string    `json:"role"`
	IsCoachingClient  bool      `json:"is_coaching_client"`
	CoachID           *string   `json:"coach_id,omitempty"`
	CoachingChannelID *string   `json:"coaching_channel_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const (
	RoleAdmin  = "admin"
	RoleCoach  = "coach"
	RoleMember = "member"
)
