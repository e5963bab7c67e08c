package models

import "time"

// ToastKind — уровень всплывающего уведомления.
type ToastKind string

const (
	ToastOK   ToastKind = "ok"
	ToastWarn ToastKind = "warn"
	ToastErr  ToastKind = "err"
)

// Состояния индикатора соединения с удалённым хранилищем.
const (
	ConnSyncing = "syncing"
	ConnOnline  = "online"
	ConnError   = "error"
)

// Notification — событие ленты уведомлений, которую читает клиент.
type Notification struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Kind    ToastKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
}
