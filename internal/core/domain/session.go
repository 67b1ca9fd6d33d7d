package domain

// Session is the client's authentication state. Token and User are set and
// cleared together; the empty session is the anonymous state.
type Session struct {
	Token string
	User  *UserProfile
}

// IsZero reports whether s is the anonymous session.
func (s Session) IsZero() bool {
	return s.Token == "" && s.User == nil
}

// Valid reports whether s is a complete authenticated session.
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil
}

func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

func (s Session) IsAdmin() bool {
	return s.User.IsAdmin()
}

// Normalize collapses a half-populated session to the anonymous one.
func (s Session) Normalize() Session {
	if !s.Valid() {
		return Session{}
	}
	return s
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	return Session{Token: s.Token, User: s.User.Clone()}
}
