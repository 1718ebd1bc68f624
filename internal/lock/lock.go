package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout - блокировку не удалось получить до отмены контекста.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker выдает взаимное исключение по ключу (user_id).
type Locker interface {
	// Lock блокирует до получения блокировки или отмены ctx.
	// Возвращаемая функция освобождает блокировку; повторный вызов безопасен.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
