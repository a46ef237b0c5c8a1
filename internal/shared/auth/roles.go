package auth

import "strings"

// Caller roles carried in the JWT role claim.
const (
	RoleBorrower    = "borrower"
	RoleLoanOfficer = "loan_officer"
	RoleProcessor   = "processor"
	RoleUnderwriter = "underwriter"
	RoleAdmin       = "admin"
	RoleExecutive   = "executive"
)

var knownRoles = map[string]struct{}{
	RoleBorrower:    {},
	RoleLoanOfficer: {},
	RoleProcessor:   {},
	RoleUnderwriter: {},
	RoleAdmin:       {},
	RoleExecutive:   {},
}

// NormalizeRole lowercases a role and reports whether it is known.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToLower(strings.TrimSpace(role))
	_, ok := knownRoles[role]
	return role, ok
}

// IsStaff reports whether role belongs to lender staff.
func IsStaff(role string) bool {
	r, ok := NormalizeRole(role)
	return ok && r != RoleBorrower
}
