package authstate

// IsValid checks if the role is one of the predefined valid roles
func (r ProfileRole) IsValid() bool {
	switch r {
	case RoleClient, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanManageClients checks if this role can provision and manage client accounts
func (r ProfileRole) CanManageClients() bool {
	switch r {
	case RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r ProfileRole) IsAtLeast(minRole ProfileRole) bool {
	roleHierarchy := map[ProfileRole]int{
		RoleClient: 0,
		RoleAdmin:  1,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []ProfileRole {
	return []ProfileRole{
		RoleClient,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a ProfileRole type
func ParseRole(roleStr string) (ProfileRole, bool) {
	role := ProfileRole(roleStr)
	return role, role.IsValid()
}

// RoleOrDefault parses a raw role string, falling back to the client role for
// unknown values so a corrupt row never grants elevated access.
func RoleOrDefault(roleStr string) ProfileRole {
	role, ok := ParseRole(roleStr)
	if !ok {
		return RoleClient
	}
	return role
}
