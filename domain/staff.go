package domain

const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
)

// Staff is a pharmacist or administrator account that sales are attributed to.
type Staff struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	FullName     string `json:"full_name" db:"full_name"`
	Role         string `json:"role" db:"role"`
	PasswordHash string `json:"-" db:"password_hash"`
}
