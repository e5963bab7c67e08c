// Package redisstore реализует удалённое хранилище на Redis.
//
// Значение верхнего уровня хранится строкой под ключом <prefix><path>,
// записи коллекции — полями хеша <prefix><path>:items. После каждой записи
// имя изменённой коллекции публикуется в канал <prefix>changes, подписчики
// перечитывают её и получают полный снимок.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/BaoQuyyy/HuyGym/internal/config"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
)

// Store — удалённое хранилище поверх redis.Client.
type Store struct {
	Db     *redis.Client
	prefix string
	log    *slog.Logger
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection, log *slog.Logger) (*Store, error) {
	const op = "redisstore.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{Db: db, prefix: cfg.KeyPrefix, log: log}, nil
}

// Close закрывает клиент.
func (s *Store) Close() error {
	return s.Db.Close()
}

func (s *Store) valueKey(top string) string { return s.prefix + top }
func (s *Store) itemsKey(top string) string { return s.prefix + top + ":items" }
func (s *Store) channel() string            { return s.prefix + "changes" }

// Read возвращает значение пути или nil, если его нет.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	const op = "redisstore.Read"
	top, child, err := remote.Split(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if child != "" {
		val, err := s.Db.HGet(ctx, s.itemsKey(top), child).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return val, nil
	}

	val, err := s.Db.Get(ctx, s.valueKey(top)).Bytes()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.Db.HGetAll(ctx, s.itemsKey(top)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	children := make(map[string][]byte, len(items))
	for k, v := range items {
		children[k] = []byte(v)
	}
	data, err := remote.JoinChildren(children)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Write записывает значение пути; nil удаляет его. Запись верхнего уровня
// заменяет и все записи коллекции.
func (s *Store) Write(ctx context.Context, path string, value []byte) error {
	const op = "redisstore.Write"
	top, child, err := remote.Split(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		switch {
		case child != "" && value == nil:
			pipe.HDel(ctx, s.itemsKey(top), child)
		case child != "":
			pipe.HSet(ctx, s.itemsKey(top), child, value)
		case value == nil:
			pipe.Del(ctx, s.valueKey(top), s.itemsKey(top))
		default:
			pipe.Del(ctx, s.itemsKey(top))
			pipe.Set(ctx, s.valueKey(top), value, 0)
		}
		pipe.Publish(ctx, s.channel(), top)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

// Subscribe отдаёт текущее значение path и затем новое значение после
// каждого изменения коллекции.
func (s *Store) Subscribe(ctx context.Context, path string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error) {
	const op = "redisstore.Subscribe"
	top, _, err := remote.Split(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pubsub := s.Db.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}

	deliver := func() {
		data, err := s.Read(ctx, top)
		if err != nil {
			if ctx.Err() == nil {
				onError(err)
			}
			return
		}
		onSnapshot(data)
	}

	go func() {
		defer close(sub.done)
		deliver()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload != top {
					continue
				}
				deliver()
			}
		}
	}()

	s.log.Debug("subscribed", slog.String("path", top))
	go func() {
		<-ctx.Done()
		if err := sub.Close(); err != nil {
			s.log.Debug("subscription closed", sl.Err(err))
		}
	}()
	return sub, nil
}
