package models

import "time"

type Role string

const (
	RoleGeneral   Role = "general"
	RoleModerator Role = "moderator"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Role         Role      `json:"role"`
	Reputation   int       `json:"reputation"`
	ProfilePic   string    `json:"profilePic" db:"profile_pic"`
	Location     string    `json:"location"`
	Technologies []string  `json:"technologies"`
	JoinedAt     time.Time `json:"joinedAt" db:"joined_at"`
}

// PublicUser is the author shape embedded in content views. It carries no
// credential material.
type PublicUser struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	ProfilePic string `json:"profilePic" db:"profile_pic"`
}

// Identity is the authenticated caller, resolved from the session cookie
// upstream and threaded explicitly through every core call.
type Identity struct {
	UserID int
	Role   Role
}

func (id Identity) IsModerator() bool {
	return id.Role == RoleModerator
}

// UserDetails is the profile page payload: the user plus everything they
// authored.
type UserDetails struct {
	User
	Questions []QuestionView `json:"questions"`
	Answers   []Answer       `json:"answers"`
	Comments  []Comment      `json:"comments"`
}
