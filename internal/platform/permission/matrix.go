// Package permission holds the role × module × operation access matrix that
// gates every /api/v1 route.
package permission

import (
	"sort"
	"sync"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePharmacist   Role = "pharmacist"
	RoleAccountant   Role = "accountant"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist, RoleAccountant}

type Module string

const (
	ModulePatients      Module = "patients"
	ModuleClerking      Module = "clerking"
	ModuleAppointments  Module = "appointments"
	ModulePrescriptions Module = "prescriptions"
	ModuleBilling       Module = "billing"
	ModulePharmacy      Module = "pharmacy"
	ModuleStaff         Module = "staff"
	ModuleFacilities    Module = "facilities"
	ModuleUsers         Module = "users"
)

// Modules lists every known module in display order.
var Modules = []Module{
	ModulePatients, ModuleClerking, ModuleAppointments, ModulePrescriptions,
	ModuleBilling, ModulePharmacy, ModuleStaff, ModuleFacilities, ModuleUsers,
}

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lists the CRUD operations in display order.
var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

func IsRole(r Role) bool { return contains(Roles, r) }

func IsModule(m Module) bool { return contains(Modules, m) }

func IsOperation(o Operation) bool { return contains(Operations, o) }

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// opSet is a bitmask over Operations.
type opSet uint8

const (
	opC opSet = 1 << iota
	opR
	opU
	opD
	opCRUD = opC | opR | opU | opD
)

func bit(op Operation) opSet {
	switch op {
	case OpCreate:
		return opC
	case OpRead:
		return opR
	case OpUpdate:
		return opU
	case OpDelete:
		return opD
	}
	return 0
}

func (s opSet) ops() []Operation {
	out := []Operation{}
	for _, op := range Operations {
		if s&bit(op) != 0 {
			out = append(out, op)
		}
	}
	return out
}

var defaultGrants = map[Role]map[Module]opSet{
	RoleDoctor: {
		ModulePatients: opR | opU, ModuleClerking: opC | opR | opU, ModuleAppointments: opR | opU,
		ModulePrescriptions: opC | opR | opU, ModulePharmacy: opR, ModuleStaff: opR, ModuleFacilities: opR,
	},
	RoleNurse: {
		ModulePatients: opR | opU, ModuleClerking: opC | opR | opU, ModuleAppointments: opR | opU,
		ModulePrescriptions: opR, ModulePharmacy: opR, ModuleStaff: opR, ModuleFacilities: opR,
	},
	RoleReceptionist: {
		ModulePatients: opC | opR | opU, ModuleAppointments: opC | opR | opU, ModuleBilling: opC | opR,
		ModuleStaff: opR, ModuleFacilities: opR,
	},
	RolePharmacist: {
		ModulePatients: opR, ModulePrescriptions: opR | opU, ModuleBilling: opR, ModulePharmacy: opCRUD,
		ModuleStaff: opR, ModuleFacilities: opR,
	},
	RoleAccountant: {
		ModulePatients: opR, ModuleAppointments: opR, ModulePrescriptions: opR, ModuleBilling: opCRUD,
		ModulePharmacy: opR, ModuleStaff: opR, ModuleFacilities: opR,
	},
}

// Matrix answers permission questions. It is safe for concurrent use; Apply
// may swap cells while requests are being served.
type Matrix struct {
	mu     sync.RWMutex
	grants map[Role]map[Module]opSet
}

// Default returns a matrix holding the built-in grants.
func Default() *Matrix {
	m := &Matrix{grants: make(map[Role]map[Module]opSet, len(defaultGrants))}
	for role, mods := range defaultGrants {
		cp := make(map[Module]opSet, len(mods))
		for mod, ops := range mods {
			cp[mod] = ops
		}
		m.grants[role] = cp
	}
	return m
}

// Can reports whether role may perform op on module. Unknown values are
// denied; admin may do everything.
func (m *Matrix) Can(role Role, module Module, op Operation) bool {
	if !IsModule(module) || !IsOperation(op) {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grants[role][module]&bit(op) != 0
}

// CanAny reports whether any of roles may perform op on module.
func (m *Matrix) CanAny(roles []string, module Module, op Operation) bool {
	for _, role := range roles {
		if m.Can(Role(role), module, op) {
			return true
		}
	}
	return false
}

// ForRole returns the allowed operations per module for role. Modules with
// no access are omitted.
func (m *Matrix) ForRole(role Role) map[Module][]Operation {
	out := make(map[Module][]Operation)
	if !IsRole(role) {
		return out
	}
	for _, mod := range Modules {
		var set opSet
		for _, op := range Operations {
			if m.Can(role, mod, op) {
				set |= bit(op)
			}
		}
		if set != 0 {
			out[mod] = set.ops()
		}
	}
	return out
}

// ForRoles merges ForRole across several roles.
func (m *Matrix) ForRoles(roles []string) map[Module][]Operation {
	merged := make(map[Module]opSet)
	for _, role := range roles {
		for mod, ops := range m.ForRole(Role(role)) {
			for _, op := range ops {
				merged[mod] |= bit(op)
			}
		}
	}
	out := make(map[Module][]Operation, len(merged))
	for mod, set := range merged {
		out[mod] = set.ops()
	}
	return out
}

// Snapshot returns ForRole for every known role.
func (m *Matrix) Snapshot() map[Role]map[Module][]Operation {
	out := make(map[Role]map[Module][]Operation, len(Roles))
	for _, role := range Roles {
		out[role] = m.ForRole(role)
	}
	return out
}

// Cell renders the operations of role on module as a compact "CRUD" string,
// using "-" for no access.
func (m *Matrix) Cell(role Role, module Module) string {
	letters := map[Operation]byte{OpCreate: 'C', OpRead: 'R', OpUpdate: 'U', OpDelete: 'D'}
	var out []byte
	for _, op := range Operations {
		if m.Can(role, module, op) {
			out = append(out, letters[op])
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return string(out)
}

func (m *Matrix) set(role Role, module Module, ops []Operation) {
	var s opSet
	for _, op := range ops {
		s |= bit(op)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grants[role] == nil {
		m.grants[role] = make(map[Module]opSet)
	}
	m.grants[role][module] = s
}

func sortedRoles(in map[Role]map[Module][]Operation) []Role {
	out := make([]Role, 0, len(in))
	for role := range in {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
