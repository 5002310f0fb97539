package authz

// Loan workflow permissions.
const (
	PermReadLoan     = "READ_LOAN"
	PermCreateLoan   = "CREATE_LOAN"
	PermReviewLoan   = "REVIEW_LOAN"
	PermApproveLoan  = "APPROVE_LOAN"
	PermDisburseLoan = "DISBURSE_LOAN"
)

// Master data permissions.
const (
	PermReadUser   = "READ_USER"
	PermCreateUser = "CREATE_USER"
	PermUpdateUser = "UPDATE_USER"
	PermDeleteUser = "DELETE_USER"

	PermReadRole   = "READ_ROLE"
	PermCreateRole = "CREATE_ROLE"
	PermUpdateRole = "UPDATE_ROLE"
	PermDeleteRole = "DELETE_ROLE"

	PermReadPermission   = "READ_PERMISSION"
	PermCreatePermission = "CREATE_PERMISSION"

	PermReadPlafond   = "READ_PLAFOND"
	PermCreatePlafond = "CREATE_PLAFOND"
	PermUpdatePlafond = "UPDATE_PLAFOND"
	PermDeletePlafond = "DELETE_PLAFOND"

	PermReadProduct   = "READ_PRODUCT"
	PermCreateProduct = "CREATE_PRODUCT"
	PermUpdateProduct = "UPDATE_PRODUCT"
	PermDeleteProduct = "DELETE_PRODUCT"

	PermReadCustomer = "READ_CUSTOMER"

	PermReadReport = "READ_REPORT"
)

// CatalogScopes lists every permission code the console understands, used
// by seeders and by the admin screens that assign codes to roles.
func CatalogScopes() []string {
	return []string{
		PermReadLoan,
		PermCreateLoan,
		PermReviewLoan,
		PermApproveLoan,
		PermDisburseLoan,
		PermReadUser,
		PermCreateUser,
		PermUpdateUser,
		PermDeleteUser,
		PermReadRole,
		PermCreateRole,
		PermUpdateRole,
		PermDeleteRole,
		PermReadPermission,
		PermCreatePermission,
		PermReadPlafond,
		PermCreatePlafond,
		PermUpdatePlafond,
		PermDeletePlafond,
		PermReadProduct,
		PermCreateProduct,
		PermUpdateProduct,
		PermDeleteProduct,
		PermReadCustomer,
		PermReadReport,
	}
}
