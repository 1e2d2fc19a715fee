package middleware

import (
	"booking-api/config"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

func Authorize() fiber.Handler {
	envval, _ := config.GetSecret("SIGN")

	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(envval),
		ErrorHandler: jwtError,
		ContextKey:   "identity",
	})
}

// jwtError answers 401 for missing and invalid credentials alike, with no
// rate-limit fields on the response.
func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// IdentityClaims returns the claims of the verified token, or nil on routes
// without the Authorize middleware. jwtware stores the v4 token type, so the
// assertion here must match it.
func IdentityClaims(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("identity").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// UserId returns the authenticated principal id, empty when anonymous.
func UserId(c *fiber.Ctx) string {
	claims := IdentityClaims(c)
	if claims == nil {
		return ""
	}
	uid, _ := claims["uid"].(string)
	return uid
}

// IsAdmin reports whether the verified token carries the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	claims := IdentityClaims(c)
	if claims == nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
