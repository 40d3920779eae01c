package models

// User is the authenticated identity handed over by the auth provider
// (Supabase JWT). A nil *User means "nobody is signed in".
type User struct {
	ID    string `json:"id"` // uuid
	Name  string `json:"name"`
	Email string `json:"email"`
}
