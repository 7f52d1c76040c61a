package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS - middleware для настройки Cross-Origin Resource Sharing.
// Пустой allowOrigins разрешает любые источники без credentials.
func CORS(allowOrigins string) fiber.Handler {
	if allowOrigins == "" || allowOrigins == "*" {
		return cors.New(cors.Config{
			AllowOrigins:  "*",
			AllowMethods:  "GET,POST,DELETE,OPTIONS",
			AllowHeaders:  "Content-Type,Accept,Authorization",
			ExposeHeaders: "Location",
		})
	}
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Authorization",
		ExposeHeaders:    "Location",
		AllowCredentials: true,
	})
}
