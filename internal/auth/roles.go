package auth

// GlobalRole is the account-wide role carried by every user.
type GlobalRole string

const (
	RoleUser    GlobalRole = "user"
	RoleTeacher GlobalRole = "teacher"
	RoleAdmin   GlobalRole = "admin"
)

// ParseGlobalRole maps a stored or token role string to a GlobalRole.
func ParseGlobalRole(s string) (GlobalRole, bool) {
	switch GlobalRole(s) {
	case RoleUser, RoleTeacher, RoleAdmin:
		return GlobalRole(s), true
	}
	return "", false
}

func (r GlobalRole) Valid() bool {
	_, ok := ParseGlobalRole(string(r))
	return ok
}

// ClassRole is the per-class role of a member.
type ClassRole string

const (
	ClassRoleStudent        ClassRole = "student"
	ClassRoleRepresentative ClassRole = "class_representative"
	ClassRoleTeacher        ClassRole = "teacher"
)

// ParseClassRole maps a stored role string to a ClassRole.
func ParseClassRole(s string) (ClassRole, bool) {
	switch ClassRole(s) {
	case ClassRoleStudent, ClassRoleRepresentative, ClassRoleTeacher:
		return ClassRole(s), true
	}
	return "", false
}

func (r ClassRole) Valid() bool {
	_, ok := ParseClassRole(string(r))
	return ok
}

// Canonical allow-lists used by the role gates.
var (
	AdminRoles   = []GlobalRole{RoleAdmin}
	TeacherRoles = []GlobalRole{RoleTeacher, RoleAdmin}

	ClassTeacherRoles        = []ClassRole{ClassRoleTeacher}
	ClassRepresentativeRoles = []ClassRole{ClassRoleRepresentative, ClassRoleTeacher}
	ClassMemberRoles         = []ClassRole{ClassRoleStudent, ClassRoleRepresentative, ClassRoleTeacher}
)

// UserStatus tracks whether an account may authenticate.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}
