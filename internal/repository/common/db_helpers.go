package common

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Clock источник текущего времени; подменяется в тестах.
type Clock func() time.Time

// SystemClock возвращает текущее время в UTC с точностью до микросекунды, как хранит TIMESTAMPTZ.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
