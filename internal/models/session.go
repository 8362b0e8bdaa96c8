package models

// Session is the authenticated identity held client-side. It is valid only
// when every field is set; a partially persisted session counts as absent.
type Session struct {
	Token  string `yaml:"token"`
	UserID int64  `yaml:"user_id"`
	Name   string `yaml:"name"`
}

// Complete reports whether every field of the session is present.
func (s Session) Complete() bool {
	return s.Token != "" && s.UserID != 0 && s.Name != ""
}
