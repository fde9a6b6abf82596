package models

// User is the session identity created by the simulated auth flows.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Theme is the UI theme preference persisted per user.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is a known theme value.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}
