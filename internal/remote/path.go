// Package remote содержит общие правила путей удалённого хранилища.
//
// Путь верхнего уровня ("gym_members") хранит значение целиком. Путь вида
// "activity_log/<id>" хранит отдельную запись коллекции; чтение пути
// "activity_log" возвращает JSON-объект id → запись.
package remote

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subscription — активная подписка на путь.
type Subscription interface {
	Close() error
}

// Split разбивает путь на коллекцию и ключ записи (пустой для верхнего уровня).
func Split(path string) (top, child string, err error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", "", fmt.Errorf("remote.Split: empty path")
	}
	top, child, _ = strings.Cut(path, "/")
	if strings.Contains(child, "/") {
		return "", "", fmt.Errorf("remote.Split: path %q is too deep", path)
	}
	return top, child, nil
}

// JoinChildren собирает записи коллекции в JSON-объект. Пустая коллекция — nil.
func JoinChildren(children map[string][]byte) ([]byte, error) {
	if len(children) == 0 {
		return nil, nil
	}
	obj := make(map[string]json.RawMessage, len(children))
	for k, v := range children {
		obj[k] = json.RawMessage(v)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("remote.JoinChildren: %w", err)
	}
	return data, nil
}
