// internal/authz/permissions.go
package authz

// --- ДЕЙСТВИЯ, ПРОВЕРЯЕМЫЕ ПОЛИТИКОЙ ---

const (
	// Компания
	CompanyView            = "company:view"
	CompanyInviteTokenView = "company:invite_token:view"
	CompanyEmployeesView   = "company:employees:view"

	// Отделы
	DepartmentCreate = "department:create"
	DepartmentView   = "department:view"

	// Сотрудники
	EmployeeAdd = "employee:add"

	// Сделки в CRM
	DealView   = "deal:view"
	DealCreate = "deal:create"
)
