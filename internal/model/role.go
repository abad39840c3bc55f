package model

import "fmt"

// Role is a capability granted to an account by the administrator.
type Role uint8

// Roles. The zero value is not a valid role.
const (
	RoleFarmer Role = iota + 1
	RoleDistributor
	RoleRetailer
	RoleConsumer
)

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer}

var roleNames = map[Role]string{
	RoleFarmer:      "farmer",
	RoleDistributor: "distributor",
	RoleRetailer:    "retailer",
	RoleConsumer:    "consumer",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
