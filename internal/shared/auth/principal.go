package auth

import "errors"

// ErrForbidden is returned when a caller may not act on a record.
var ErrForbidden = errors.New("forbidden")

// StaffRoles lists every lender-side role.
var StaffRoles = []string{RoleLoanOfficer, RoleProcessor, RoleUnderwriter, RoleAdmin, RoleExecutive}

// Principal is the caller behind a request.
type Principal struct {
	UserID string
	Role   string
	// Guest is set for callers identified only by X-Guest-Id.
	Guest bool
}

// IsStaff reports whether p is a signed-in staff member. Guests never are,
// whatever role they carry.
func (p Principal) IsStaff() bool {
	return !p.Guest && IsStaff(p.Role)
}

// CanAccess reports whether p may act on a record owned by ownerUserID.
// Staff may act on every record; everyone else only on their own.
func (p Principal) CanAccess(ownerUserID string) bool {
	if p.IsStaff() {
		return true
	}
	return p.UserID != "" && p.UserID == ownerUserID
}
