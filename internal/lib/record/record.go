// Package record переводит участников между проводным форматом (плоские
// поля, даты строками) и представлением в памяти. Разбор терпим к старым и
// повреждённым данным и никогда не возвращает ошибку для отдельной записи.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BaoQuyyy/HuyGym/internal/models"
)

// isoLayout — формат дат в сохранённых данных: UTC с миллисекундами.
const isoLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Токены проверяются по порядку: paused, затем expired, затем warning.
// Фраза "sắp hết hạn" (скоро истекает) содержит токены expired, поэтому
// expired не засчитывается, если в строке есть токен warning.
var (
	pausedTokens  = []string{"tam", "dừng", "dung"}
	expiredTokens = []string{"het", "hết", "hạn"}
	warningTokens = []string{"sap", "sắp"}
)

// NormalizeStatus приводит произвольное значение статуса к одному из четырёх
// канонических. Исторические данные хранили вьетнамские подписи ("Tạm Dừng",
// "Sắp hết hạn"), поэтому используется поиск подстрок.
func NormalizeStatus(raw string) models.Status {
	if raw == "" {
		return models.StatusActive
	}
	if s := models.Status(raw); s.Valid() {
		return s
	}
	lower := strings.ToLower(raw)
	switch {
	case containsAny(lower, pausedTokens):
		return models.StatusPaused
	case containsAny(lower, expiredTokens) && !containsAny(lower, warningTokens):
		return models.StatusExpired
	case containsAny(lower, warningTokens):
		return models.StatusWarning
	}
	return models.StatusActive
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Parse строит участника из сырой записи. Даты разбираются из строк ISO-8601,
// дата регистрации по умолчанию равна дате начала, числовые поля приводятся к
// неотрицательным значениям (ошибка разбора даёт 0), статус нормализуется.
func Parse(raw map[string]any) models.Member {
	m := models.Member{
		ID:           toInt(raw["id"]),
		Name:         toString(raw["ten"]),
		Phone:        toString(raw["sdt"]),
		RegisteredOn: toDate(raw["ngay_dk"]),
		StartedOn:    toDate(raw["ngay_bd"]),
		PackageDays:  nonNegative(toInt(raw["so_ngay"])),
		BonusDays:    nonNegative(toInt(raw["ngay_bu"])),
		ExpiresOn:    toDate(raw["ngay_hh"]),
		DaysLeft:     toInt(raw["con_lai"]),
		Status:       NormalizeStatus(toString(raw["tt"])),
		Note:         toString(raw["ghi_chu"]),
		Price:        math.Max(0, toFloat(raw["gia"])),
	}
	if m.RegisteredOn.IsZero() {
		m.RegisteredOn = m.StartedOn
	}
	return m
}

// Serialize переводит участника в проводной формат.
func Serialize(m models.Member) models.WireRecord {
	status := m.Status
	if status == "" {
		status = models.StatusActive
	}
	return models.WireRecord{
		ID:     m.ID,
		Ten:    m.Name,
		Sdt:    m.Phone,
		NgayDK: FormatDate(m.RegisteredOn),
		NgayBD: FormatDate(m.StartedOn),
		SoNgay: m.PackageDays,
		NgayHH: FormatDate(m.ExpiresOn),
		ConLai: m.DaysLeft,
		NgayBu: m.BonusDays,
		TT:     status,
		GhiChu: m.Note,
		Gia:    m.Price,
	}
}

// SerializeAll переводит коллекцию участников в проводной формат.
func SerializeAll(members []models.Member) []models.WireRecord {
	out := make([]models.WireRecord, 0, len(members))
	for _, m := range members {
		out = append(out, Serialize(m))
	}
	return out
}

// ParseWire разбирает уже типизированную проводную запись, например снимок
// из журнала действий.
func ParseWire(w models.WireRecord) models.Member {
	raw := map[string]any{
		"id":      w.ID,
		"ten":     w.Ten,
		"sdt":     w.Sdt,
		"ngay_dk": w.NgayDK,
		"ngay_bd": w.NgayBD,
		"so_ngay": w.SoNgay,
		"ngay_hh": w.NgayHH,
		"con_lai": w.ConLai,
		"ngay_bu": w.NgayBu,
		"tt":      string(w.TT),
		"ghi_chu": w.GhiChu,
		"gia":     w.Gia,
	}
	return Parse(raw)
}

// FormatDate возвращает дату в ISO-8601 UTC с миллисекундами или "" для нулевой даты.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

// MarshalCollection сериализует участников в JSON-массив проводных записей.
func MarshalCollection(members []models.Member) ([]byte, error) {
	const op = "record.MarshalCollection"
	data, err := json.Marshal(SerializeAll(members))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// ParseCollection разбирает снимок коллекции участников. Снимок может быть
// массивом или объектом с записями в значениях; null-элементы пропускаются.
// Пустой вход и null дают пустую коллекцию.
func ParseCollection(data []byte) ([]models.Member, error) {
	const op = "record.ParseCollection"
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var anyValue any
	if err := json.Unmarshal(data, &anyValue); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var items []any
	switch v := anyValue.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		items = sortedValues(v)
	default:
		return nil, fmt.Errorf("%s: unexpected snapshot type %T", op, anyValue)
	}
	return parseItems(items), nil
}

// ParseImport разбирает файл импорта: массив записей или объект с полем
// records. Всё остальное — models.ErrMalformedImport.
func ParseImport(data []byte) ([]models.Member, error) {
	const op = "record.ParseImport"
	var anyValue any
	if err := json.Unmarshal(data, &anyValue); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrMalformedImport, err)
	}
	if obj, ok := anyValue.(map[string]any); ok {
		anyValue = obj["records"]
	}
	items, ok := anyValue.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w: records array expected", op, models.ErrMalformedImport)
	}
	return parseItems(items), nil
}

func parseItems(items []any) []models.Member {
	members := make([]models.Member, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		members = append(members, Parse(raw))
	}
	return members
}

// sortedValues возвращает значения объекта в порядке числовых ключей
// ("0", "1", ...), так сохраняется порядок массивов, записанных как объекты.
func sortedValues(obj map[string]any) []any {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		if errI == nil && errJ == nil {
			return ni < nj
		}
		if errI != nil && errJ != nil {
			return keys[i] < keys[j]
		}
		return errI == nil
	})
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = obj[k]
	}
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// toInt повторяет поведение parseInt: берётся ведущая целая часть строки.
func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int(x)
	case string:
		s := strings.TrimSpace(x)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
			end++
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return 0
}

// ParseDate разбирает дату в одном из форматов ISO-8601 (RFC3339,
// YYYY-MM-DDTHH:MM:SS или YYYY-MM-DD).
func ParseDate(s string) (time.Time, bool) {
	t := toDate(s)
	return t, !t.IsZero()
}

func toDate(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
