package models

// Rôles applicatifs
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"` // jamais sérialisé vers le client ni le cache
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
	Role     string `json:"role"`
}
