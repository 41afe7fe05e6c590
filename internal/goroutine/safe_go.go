package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/delivery-backend/internal/logger"
)

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	entry func() *logrus.Entry
}

// NewRecoveryHandler создает новый обработчик. Логгер берётся при каждом panic,
// чтобы учитывать переинициализацию logger.Log.
func NewRecoveryHandler(entry func() *logrus.Entry) *RecoveryHandler {
	return &RecoveryHandler{entry: entry}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recoverPanic()
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recoverPanic() {
	if r := recover(); r != nil {
		rh.entry().WithFields(logrus.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("panic в горутине")
	}
}

// DefaultRecoveryHandler - глобальный обработчик, пишущий в logger.Log
var DefaultRecoveryHandler = NewRecoveryHandler(func() *logrus.Entry {
	return logger.WithComponent("goroutine")
})

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
