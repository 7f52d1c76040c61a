package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Recovery - middleware для восстановления после паники.
// Паника из движка или обработчика логируется со стеком и отдается как 500.
func Recovery(logger *zap.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Error("Panic recovered",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("panic", e),
				zap.ByteString("stack", debug.Stack()),
			)
		},
	})
}
