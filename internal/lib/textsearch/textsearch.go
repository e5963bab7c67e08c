// Package textsearch реализует поиск без учёта регистра и вьетнамских
// диакритических знаков ("Nguyễn" находится по запросу "nguyen").
package textsearch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// Fold убирает диакритику и приводит строку к нижнему регистру.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(dReplacer.Replace(folded))
}

// Match сообщает, содержит ли text запрос query. Пустой запрос совпадает
// со всем. Сравнение идёт и по свёрнутым строкам, и по исходным в нижнем
// регистре, чтобы запрос с диакритикой находил точные совпадения.
func Match(text, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(Fold(text), Fold(query)) {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}
