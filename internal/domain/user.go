package domain

// Role enumerates account kinds. Values match the Usuarios.Tipo column.
type Role string

const (
	RoleChief      Role = "jefe"
	RoleTechnician Role = "tecnico"
	RoleOrdinary   Role = "comun"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleChief, RoleTechnician, RoleOrdinary:
		return true
	}
	return false
}

// User is an account provisioned outside the app.
type User struct {
	ID          int64
	Username    string
	DisplayName string
	Password    string
	Role        Role
}
