package shared

// Core platform permissions.
const (
	PermDashboardView = "dashboard.view"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermTenantEdit = "tenant.edit"
)

// Bakery operations permissions.
const (
	PermLocationsView = "locations.view"
	PermLocationsEdit = "locations.edit"

	PermSuppliersView = "suppliers.view"
	PermSuppliersEdit = "suppliers.edit"

	PermProductsView = "products.view"
	PermProductsEdit = "products.edit"

	PermProductionView = "production.view"
	PermProductionEdit = "production.edit"

	PermOrdersView = "orders.view"
	PermOrdersEdit = "orders.edit"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermDashboardView,
		PermUsersView,
		PermUsersEdit,
		PermTenantEdit,
	}
}

// OperationsScopes lists all bakery operations permissions.
func OperationsScopes() []string {
	return []string{
		PermLocationsView,
		PermLocationsEdit,
		PermSuppliersView,
		PermSuppliersEdit,
		PermProductsView,
		PermProductsEdit,
		PermProductionView,
		PermProductionEdit,
		PermOrdersView,
		PermOrdersEdit,
	}
}
