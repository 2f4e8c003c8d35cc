package permission

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides replaces individual matrix cells. Example:
//
//	roles:
//	  nurse:
//	    billing: [read]
//	  receptionist:
//	    patients: [create, read]
type Overrides struct {
	Roles map[Role]map[Module][]Operation `yaml:"roles"`
}

// ParseOverrides decodes YAML overrides and validates every role, module and
// operation name. admin cannot be overridden.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse permission overrides: %w", err)
	}
	for role, mods := range o.Roles {
		if role == RoleAdmin {
			return nil, fmt.Errorf("permissions of role %q cannot be overridden", role)
		}
		if !IsRole(role) {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		for mod, ops := range mods {
			if !IsModule(mod) {
				return nil, fmt.Errorf("unknown module %q for role %q", mod, role)
			}
			for _, op := range ops {
				if !IsOperation(op) {
					return nil, fmt.Errorf("unknown operation %q for %s/%s", op, role, mod)
				}
			}
		}
	}
	return &o, nil
}

// Apply writes the overridden cells into m.
func (m *Matrix) Apply(o *Overrides) {
	if o == nil {
		return
	}
	for _, role := range sortedRoles(o.Roles) {
		for mod, ops := range o.Roles[role] {
			m.set(role, mod, ops)
		}
	}
}

// Load returns the default matrix with the overrides from path applied. An
// empty path yields the defaults.
func Load(path string) (*Matrix, error) {
	m := Default()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permission overrides: %w", err)
	}
	o, err := ParseOverrides(data)
	if err != nil {
		return nil, err
	}
	m.Apply(o)
	return m, nil
}
