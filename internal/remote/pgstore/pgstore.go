// Package pgstore реализует удалённое хранилище на PostgreSQL.
//
// Значения лежат в таблице remote_nodes (parent, key, value): значение
// верхнего уровня имеет пустой key, записи коллекции — собственный key.
// Об изменениях сообщает pg_notify в канал remote_changes с именем
// коллекции; подписчик слушает канал на выделенном соединении.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
)

const notifyChannel = "remote_changes"

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB  *sql.DB
	dsn string
	log *slog.Logger
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string, log *slog.Logger) (*Storage, error) {
	const op = "pgstore.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db, dsn: storageConnectionString, log: log}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Read возвращает значение пути или nil, если его нет.
func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	const op = "pgstore.Read"
	top, child, err := remote.Split(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var value string
	err = s.DB.QueryRowContext(ctx,
		`SELECT value::text FROM remote_nodes WHERE parent = $1 AND key = $2`,
		top, child,
	).Scan(&value)
	switch {
	case err == nil:
		return []byte(value), nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", op, err)
	case child != "":
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT key, value::text FROM remote_nodes WHERE parent = $1 AND key <> ''`,
		top,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	children := make(map[string][]byte)
	for rows.Next() {
		var key, v string
		if err := rows.Scan(&key, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		children[key] = []byte(v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := remote.JoinChildren(children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Write записывает значение пути; nil удаляет его. Запись верхнего уровня
// заменяет и все записи коллекции. Уведомление уходит при фиксации транзакции.
func (s *Storage) Write(ctx context.Context, path string, value []byte) (err error) {
	const op = "pgstore.Write"
	top, child, err := remote.Split(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	switch {
	case child != "" && value == nil:
		_, err = tx.ExecContext(ctx, `DELETE FROM remote_nodes WHERE parent = $1 AND key = $2`, top, child)
	case child != "":
		_, err = tx.ExecContext(ctx, `
			INSERT INTO remote_nodes (parent, key, value) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (parent, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			top, child, string(value))
	case value == nil:
		_, err = tx.ExecContext(ctx, `DELETE FROM remote_nodes WHERE parent = $1`, top)
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM remote_nodes WHERE parent = $1`, top); err == nil {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO remote_nodes (parent, key, value) VALUES ($1, '', $2::jsonb)`,
				top, string(value))
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, top); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// Subscribe открывает отдельное соединение с LISTEN, отдаёт текущее
// значение path и новое значение после каждого изменения коллекции.
func (s *Storage) Subscribe(ctx context.Context, path string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error) {
	const op = "pgstore.Subscribe"
	top, _, err := remote.Split(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	deliver := func() bool {
		data, err := s.Read(ctx, top)
		if err != nil {
			if ctx.Err() == nil {
				onError(err)
			}
			return ctx.Err() == nil
		}
		onSnapshot(data)
		return true
	}

	go func() {
		defer close(sub.done)
		defer func() {
			if err := conn.Close(context.Background()); err != nil {
				s.log.Debug("failed to close listen connection", sl.Err(err))
			}
		}()

		if !deliver() {
			return
		}
		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("%s: %w", op, err))
				}
				return
			}
			if n.Payload == top && !deliver() {
				return
			}
		}
	}()

	s.log.Debug("listening for changes", slog.String("path", top))
	return sub, nil
}
