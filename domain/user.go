package domain

// UserProfile maps an authenticated identity (email-shaped string)
// to an optional display name. At most one profile per identity.
type UserProfile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Label returns the name shown next to messages: the display name when
// one is set, otherwise the raw identity.
func (p UserProfile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}
