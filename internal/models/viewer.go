package models

// Viewer identifies the caller of a service operation. A zero UserID is an anonymous visitor.
type Viewer struct {
	UserID int
	Role   Role
}

// Authenticated reports whether the viewer is signed in
func (v Viewer) Authenticated() bool {
	return v.UserID > 0
}

// IsAdmin reports whether the viewer has the admin role
func (v Viewer) IsAdmin() bool {
	return v.Role >= RoleAdmin
}

// CanEdit reports whether the viewer may author the course: its instructor or any admin
func (v Viewer) CanEdit(course *Course) bool {
	if v.IsAdmin() {
		return true
	}
	return v.Authenticated() && v.Role >= RoleInstructor && course.InstructorID == v.UserID
}
