// Package middleware provides the HTTP middleware shared by the web routes.
package middleware

import (
	"errors"

	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JwtProtected guards a route with JWT bearer authentication. The verified
// token lands in c.Locals("user") for handlers to read the actor from.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return common.ProblemDetailsJSON(c, "Missing or malformed JWT", err, fiber.StatusBadRequest)
	}
	return common.ProblemDetailsJSON(c, "Invalid or expired JWT", err, fiber.StatusUnauthorized)
}
