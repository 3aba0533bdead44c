package models

type Role string

const (
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// Viewer is the identity looking at a class view. It is supplied by the
// caller and never mutated.
type Viewer struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (v Viewer) IsLecturer() bool {
	return v.Role == RoleLecturer
}

func (v Viewer) IsStudent() bool {
	return v.Role == RoleStudent
}
