package domain

import "time"

// Session is the result of a successful login.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
	Home      Home
}

// Home describes the views a role lands on after login.
type Home struct {
	Role  Role
	Views []string
}

// HomeFor dispatches a role to its landing views.
func HomeFor(role Role) Home {
	switch role {
	case RoleChief:
		return Home{Role: role, Views: []string{"/chief/incidents/unattended", "/chief/technicians"}}
	case RoleTechnician:
		return Home{Role: role, Views: []string{
			"/technician/incidents?status=" + string(StatusAssigned),
			"/technician/incidents?status=" + string(StatusDeferred),
		}}
	case RoleOrdinary:
		return Home{Role: role, Views: []string{"/incidents", "/incidents/mine"}}
	}
	return Home{Role: role}
}
