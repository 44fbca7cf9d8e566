// pkg/constants/constants.go
package constants

import "time"

//============== USER TYPES ==============

// Тип учётной записи: физическое лицо или пользователь, привязанный к компании.
const (
	UserTypePhysical = "physical"
	UserTypeLegal    = "legal"
)

//============== ROLES ==============

// Роли хранятся в БД и в токене в том виде, в каком их показывает фронтенд.
const (
	RoleUser           = "Пользователь"
	RoleHead           = "Руководитель"
	RoleDepartmentHead = "Руководитель отдела"
	RoleEmployee       = "Сотрудник"
)

//============== COMPANY ==============

const (
	DefaultDepartmentName = "Основной отдел"
	InviteTokenLength     = 32
)

//============== COOKIES ==============

const AccessTokenCookie = "access_token"

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis.
const (
	// Формат: login_attempts:<email или телефон> -> число неудачных попыток
	CacheKeyLoginAttempts = "login_attempts:%s"
	// Формат: lockout:<email или телефон> -> флаг блокировки
	CacheKeyLockout = "lockout:%s"
	// Карта стадий сделок из CRM
	CacheKeyDealStages = "crm:deal_stages"
	// Список записей о сущностях CRM, оставшихся без локальной привязки
	CacheKeyLinkagePending = "crm:linkage_pending"
)

const DealStagesCacheTTL = 10 * time.Minute
