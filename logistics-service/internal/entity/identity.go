package entity

import (
	"strings"
)

// Роли вызывающей стороны
const (
	RoleAdmin    = "admin"
	RoleClient   = "client"
	RoleCarrier  = "carrier"
	RoleInternal = "internal"
)

// Identity аутентифицированный участник, от имени которого выполняется операция
type Identity struct {
	Role  string
	Email string
}

// SystemIdentity используется для вызовов от других сервисов и фоновых обработчиков
var SystemIdentity = Identity{Role: RoleInternal}

// IsSelfService клиент работает только со своими заявками
func (i Identity) IsSelfService() bool {
	return i.Role == RoleClient
}

// CanActFor проверяет, что участник вправе действовать от имени клиента с данным email
func (i Identity) CanActFor(clientEmail string) bool {
	if !i.IsSelfService() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(i.Email), strings.TrimSpace(clientEmail))
}
