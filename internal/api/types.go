package api

import "strings"

// Resource paths served by the backend.
const (
	PathLogin    = "/auth/login"
	PathMe       = "/auth/me"
	PathTrips    = "/trips/"
	PathExpenses = "/expenses/"
	PathAdvances = "/advance-payments/"
	PathDrivers  = "/drivers/"
	PathTrucks   = "/trucks/"
	PathClients  = "/clients/"
)

// User is the authenticated account as reported by the backend.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// DisplayName is the greeting name, "admin" when the backend sends none.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return "admin"
}

// LoginResult is the payload of POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
