package mediagrab

// IsValid checks if the role is one of the predefined valid roles
func roleIsValid(r UserRole) bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleGuest: 0,
		RoleUser:  1,
		RoleAdmin: 2,
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
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, roleIsValid(role)
}
