package domain

const GuestUserID = "guest"

// User is owned by the external auth/profile service; the core only reads and
// caches it.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	AvatarID string `json:"avatarId"`
	Bio      string `json:"bio,omitempty"`
}

func (u User) IsGuest() bool { return u.ID == GuestUserID }

func GuestUser() User {
	return User{
		ID:       GuestUserID,
		Name:     "ゲストユーザー",
		Email:    "guest@rikai.ai",
		AvatarID: "1",
		Bio:      "まずは触ってみて、Rikaiの可能性を体感してください。",
	}
}
