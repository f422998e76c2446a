package model

// Profile is the single per-device user record. It exists once a user has
// authenticated at least once; a device running in skipped mode has none.
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsProUser   bool   `json:"is_pro_user"`
}
