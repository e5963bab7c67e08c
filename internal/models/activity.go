package models

import (
	"encoding/json"
	"time"
)

// Action — вид действия в журнале.
type Action string

const (
	ActionAdd       Action = "add"
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionUpdateAll Action = "update_all"
	ActionHoliday   Action = "holiday"
	ActionImport    Action = "import"
	ActionUndo      Action = "undo"
	ActionLogin     Action = "login"
)

// OtherActions — группа "other" фильтра журнала.
var OtherActions = []Action{ActionUpdateAll, ActionHoliday, ActionImport, ActionUndo}

// Undoable сообщает, поддерживается ли отмена для данного вида действия.
func (a Action) Undoable() bool {
	return a == ActionAdd || a == ActionEdit || a == ActionDelete
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor — снимок аутентифицированного сотрудника на момент действия.
type Actor struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Color string `json:"color"`
}

// IsAdmin сообщает, обладает ли сотрудник повышенной ролью.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Entry — запись журнала. После создания не изменяется.
// Формат совпадает с тем, что хранится по ключу activity_log/<id>.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"ts"`
	User      string          `json:"user"`
	Role      string          `json:"role"`
	Color     string          `json:"color"`
	Action    Action          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Time разбирает метку времени записи. Нулевое значение при ошибке.
func (e Entry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EditPayload — данные записи edit.
type EditPayload struct {
	Before  WireRecord           `json:"before"`
	After   WireRecord           `json:"after"`
	Changes map[string][2]string `json:"changes"`
	Name    string               `json:"ten"`
}

// CountPayload — данные записей update_all и import.
type CountPayload struct {
	Count int `json:"count"`
}

// HolidayPayload — данные записи holiday.
type HolidayPayload struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// UndoPayload — данные записи undo.
type UndoPayload struct {
	What  string `json:"what"`
	RefID string `json:"ref_id"`
}
