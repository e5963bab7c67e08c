// Package models содержит доменные структуры: участника зала (Member), его
// проводной формат (WireRecord) и записи журнала действий (Entry).
package models

import "time"

// Status — состояние абонемента участника.
type Status string

const (
	StatusActive  Status = "active"
	StatusWarning Status = "warning"
	StatusExpired Status = "expired"
	StatusPaused  Status = "paused"
)

// Valid сообщает, является ли значение одним из четырёх канонических статусов.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusWarning, StatusExpired, StatusPaused:
		return true
	}
	return false
}

// Member представляет участника зала в памяти.
// ExpiresOn, DaysLeft и Status (кроме paused) всегда вычисляются из
// StartedOn, PackageDays и BonusDays, см. пакет expiry.
type Member struct {
	ID           int       // Порядковый номер, плотный 1..N
	Name         string    // Имя
	Phone        string    // Телефон, не валидируется
	RegisteredOn time.Time // Дата первой регистрации, не меняется при редактировании
	StartedOn    time.Time // Начало текущего периода
	PackageDays  int       // Длина оплаченного периода
	BonusDays    int       // Накопленные дни компенсации
	ExpiresOn    time.Time // StartedOn + PackageDays + BonusDays
	DaysLeft     int       // ExpiresOn - сегодня, отрицательное значение означает просрочку
	Status       Status
	Note         string
	Price        float64
}

// Draft — данные нового участника, пришедшие от пользователя.
type Draft struct {
	Name        string
	Phone       string
	StartedOn   time.Time
	PackageDays int
	BonusDays   int
	Status      Status
	Note        string
	Price       float64
}

// Patch — частичное изменение участника. nil означает «не менять».
type Patch struct {
	Name        *string
	Phone       *string
	StartedOn   *time.Time
	PackageDays *int
	BonusDays   *int
	Status      *Status
	Note        *string
	Price       *float64
}

// WireRecord — плоский формат хранения участника в удалённом хранилище,
// локальном кеше и файлах экспорта. Все поля присутствуют всегда.
type WireRecord struct {
	ID     int     `json:"id"`
	Ten    string  `json:"ten"`
	Sdt    string  `json:"sdt"`
	NgayDK string  `json:"ngay_dk"`
	NgayBD string  `json:"ngay_bd"`
	SoNgay int     `json:"so_ngay"`
	NgayHH string  `json:"ngay_hh"`
	ConLai int     `json:"con_lai"`
	NgayBu int     `json:"ngay_bu"`
	TT     Status  `json:"tt"`
	GhiChu string  `json:"ghi_chu"`
	Gia    float64 `json:"gia"`
}

// ExpiryReminder публикуется в RabbitMQ для участников, чей абонемент скоро
// закончится или уже закончился.
type ExpiryReminder struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	ExpiresOn time.Time `json:"expires_on"`
	DaysLeft  int       `json:"days_left"`
	Status    Status    `json:"status"`
}
