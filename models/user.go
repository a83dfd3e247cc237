package models

// UserIdentity is the verified caller identity the gateway forwards via the
// x-user-id / x-user-email / x-user-role headers. The claim engine never
// derives it locally.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roles known to the gateway's authorization layer.
const (
	RoleUser     = "USER"
	RoleOperator = "OPERATOR"
	RoleAuditor  = "AUDITOR"
	RoleAdmin    = "ADMIN"
)
