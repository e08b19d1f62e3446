package models

// Role is the access level granted by the identity provider
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "propietario"
)

// Principal represents the authenticated caller of a request
type Principal struct {
	UserID  string   `json:"user_id"`
	Email   string   `json:"email"`
	Role    Role     `json:"role"`
	Tenants []string `json:"tenants"` // condominium ids the caller may see
}

// CanAccess reports whether the principal may read the given condominium
func (p Principal) CanAccess(condoID string) bool {
	if p.Role == RoleSuperAdmin {
		return true
	}
	for _, t := range p.Tenants {
		if t == condoID {
			return true
		}
	}
	return false
}

// CanManage reports whether the principal may write to the given condominium
func (p Principal) CanManage(condoID string) bool {
	if p.Role != RoleAdmin && p.Role != RoleSuperAdmin {
		return false
	}
	return p.CanAccess(condoID)
}
