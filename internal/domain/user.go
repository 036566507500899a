package domain

// Role is a granted authority such as ROLE_ADMIN.
type Role string

const (
	RoleAdmin  Role = "ROLE_ADMIN"
	RoleClient Role = "ROLE_CLIENT"
)

// User is an account that can place orders or administer the catalog.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Roles        []Role `json:"roles"`
}
