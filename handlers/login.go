package handlers

import (
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"booking-api/config"
	"booking-api/errors"
	"booking-api/model"
	"booking-api/store"
)

func isPasswordHashCorrect(dbHash, pass string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(dbHash), []byte(pass))
	return err == nil
}

func (h *Handler) Login(c *fiber.Ctx) error {
	type Credentials struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}

	var creds = new(Credentials)
	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseBadRequestError(c, "cannot parse credentials")
	}

	var user model.UserData
	geterr := h.store.Get(c.UserContext(), store.Users, creds.Login, &user)
	if stderrors.Is(geterr, store.ErrNoDocument) {
		// Same answer as a wrong password so logins cannot be enumerated.
		return errors.RaisePermissionsError(c, "invalid login or password")
	}
	if geterr != nil {
		h.log.Error().Err(geterr).Msg("user lookup failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}

	if !isPasswordHashCorrect(user.HashedPassword, creds.Password) {
		return errors.RaisePermissionsError(c, "invalid login or password")
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = user.Login
	claims["uid"] = user.Id
	claims["role"] = user.Role
	claims["exp"] = time.Now().Add(time.Hour * 8).Unix()

	sign, enverr := config.GetSecret("SIGN")
	if enverr != nil {
		h.log.Error().Err(enverr).Msg("signing secret missing")
		return errors.RaiseInternalServerError(c, "configuration failure")
	}

	t, err := token.SignedString([]byte(sign))
	if err != nil {
		h.log.Error().Err(err).Msg("token signing failed")
		return errors.RaiseInternalServerError(c, "token failure")
	}

	return c.JSON(fiber.Map{"status": "success", "message": "Success login", "data": t})
}
