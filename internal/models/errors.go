package models

import "errors"

var (
	// ErrValidation — не заполнены обязательные поля, состояние не меняется.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — запись с указанным идентификатором уже не существует.
	ErrNotFound = errors.New("not found")
	// ErrForbidden — операция требует роли admin.
	ErrForbidden = errors.New("admin role required")
	// ErrUnauthorized — нет аутентифицированного сотрудника.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUndoUnsupported — для этого вида действия отмена не поддерживается.
	ErrUndoUnsupported = errors.New("undo is not supported for this action")
	// ErrMalformedImport — файл импорта не удалось разобрать целиком.
	ErrMalformedImport = errors.New("malformed import")
)
