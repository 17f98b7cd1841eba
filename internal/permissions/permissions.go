// Package permissions holds the fixed role → module → action matrix.
package permissions

import "restaurant_pos_backend/internal/models"

// Module is an area of the application guarded by permissions.
type Module string

const (
	ModuleOrders    Module = "orders"
	ModuleTables    Module = "tables"
	ModuleInventory Module = "inventory"
	ModuleReports   Module = "reports"
	ModuleUsers     Module = "users"

	// ModulePayments covers taking payment: requesting the bill and closing orders.
	ModulePayments Module = "payments"
)

// Action is one of view/create/update/delete.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type actionSet map[Action]bool

var (
	all      = actionSet{ActionView: true, ActionCreate: true, ActionUpdate: true, ActionDelete: true}
	viewOnly = actionSet{ActionView: true}
)

var matrix = map[string]map[Module]actionSet{
	models.RoleOwner: {
		ModuleOrders: all, ModuleTables: all, ModuleInventory: all, ModuleReports: all, ModuleUsers: all, ModulePayments: all,
	},
	models.RoleAdmin: {
		ModuleOrders: all, ModuleTables: all, ModuleInventory: all, ModuleReports: all, ModuleUsers: all, ModulePayments: all,
	},
	models.RoleManager: {
		ModuleOrders: all, ModuleTables: all, ModuleInventory: all, ModuleReports: viewOnly, ModuleUsers: viewOnly, ModulePayments: all,
	},
	models.RoleWaiter: {
		ModuleOrders:    {ActionView: true, ActionCreate: true, ActionUpdate: true},
		ModuleTables:    {ActionView: true, ActionUpdate: true},
		ModuleInventory: viewOnly,
		ModulePayments:  {ActionView: true, ActionCreate: true},
	},
	models.RoleChef: {
		ModuleOrders:    {ActionView: true, ActionUpdate: true},
		ModuleInventory: {ActionView: true, ActionUpdate: true},
	},
	models.RoleBarman: {
		ModuleOrders:    {ActionView: true, ActionUpdate: true},
		ModuleTables:    viewOnly,
		ModuleInventory: {ActionView: true, ActionUpdate: true},
	},
}

// Can reports whether role may perform action on module.
func Can(role string, module Module, action Action) bool {
	return matrix[role][module][action]
}

// For returns the actions allowed for role on every module, for the client UI.
func For(role string) map[Module][]Action {
	out := make(map[Module][]Action)
	for module, actions := range matrix[role] {
		for _, a := range []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete} {
			if actions[a] {
				out[module] = append(out[module], a)
			}
		}
	}
	return out
}
