package authz

import (
	"bip-api/internal/dto"
	"bip-api/pkg/constants"
)

// Context - кто действует и над чем. Незаполненные поля цели означают,
// что цель не ограничена этим измерением.
type Context struct {
	Actor *dto.SessionClaims

	TargetCompanyID    *uint64
	TargetDepartmentID *uint64
	TargetRole         string

	// Для сделок: владельцы сделки в CRM и CRM-id компании пользователя.
	TargetContactID    *int64
	TargetCRMCompanyID *int64
	ActorCRMCompanyID  *int64
}

type rule func(ctx Context) bool

var rules = map[string]rule{
	CompanyView:            canViewCompany,
	CompanyInviteTokenView: isCompanyHead,
	CompanyEmployeesView:   isCompanyHead,
	DepartmentCreate:       isCompanyHead,
	DepartmentView:         canViewCompany,
	EmployeeAdd:            canAddEmployee,
	DealView:               canViewDeal,
	DealCreate:             canCreateDeal,
}

// CanDo - единственная точка решения "можно/нельзя" для ролей.
// Неизвестное действие всегда запрещено.
func CanDo(action string, ctx Context) bool {
	if ctx.Actor == nil {
		return false
	}
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r(ctx)
}

func equalUint(a, b *uint64) bool {
	return a != nil && b != nil && *a == *b
}

func equalInt(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// sameCompany: у пользователя есть компания и цель (если указана) в ней же.
func sameCompany(ctx Context) bool {
	if ctx.Actor.CompanyID == nil {
		return false
	}
	return ctx.TargetCompanyID == nil || equalUint(ctx.Actor.CompanyID, ctx.TargetCompanyID)
}

func canViewCompany(ctx Context) bool {
	return ctx.Actor.UserType == constants.UserTypeLegal && sameCompany(ctx)
}

func isCompanyHead(ctx Context) bool {
	return ctx.Actor.Role == constants.RoleHead && sameCompany(ctx)
}

// canAddEmployee: руководитель добавляет сотрудника или руководителя отдела
// в любой отдел своей компании; руководитель отдела - только сотрудника
// и только в свой отдел.
func canAddEmployee(ctx Context) bool {
	if !sameCompany(ctx) {
		return false
	}
	switch ctx.Actor.Role {
	case constants.RoleHead:
		return ctx.TargetRole == constants.RoleEmployee || ctx.TargetRole == constants.RoleDepartmentHead
	case constants.RoleDepartmentHead:
		return ctx.TargetRole == constants.RoleEmployee && equalUint(ctx.Actor.DepartmentID, ctx.TargetDepartmentID)
	default:
		return false
	}
}

func canViewDeal(ctx Context) bool {
	if equalInt(ctx.Actor.ContactID, ctx.TargetContactID) {
		return true
	}
	return equalInt(ctx.ActorCRMCompanyID, ctx.TargetCRMCompanyID)
}

func canCreateDeal(ctx Context) bool {
	return ctx.Actor.ContactID != nil || ctx.ActorCRMCompanyID != nil
}
