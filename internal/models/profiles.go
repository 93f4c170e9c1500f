package models

type Profile struct {
	UserID      string `json:"user_id" db:"user_id"`
	Username    string `json:"username" db:"username"`
	DisplayName string `json:"display_name" db:"display_name"`
}

// Label is the display string used by clients when rendering a user id.
func (p Profile) Label() string {
	return p.DisplayName + " (@" + p.Username + ")"
}
