package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"carfix/internal/auth"
	"carfix/internal/errors"
)

// MessageResponse is the body of writes that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// fail converts a service error into an echo error carrying the JSON error
// body. The original error is kept as the internal cause for the request log.
func fail(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: msg,
		Code:  "VALIDATION_ERROR",
	})
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}

// baseURL is the scheme and host the request arrived on, used to absolutize
// relative image paths.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

func caller(c echo.Context) (*auth.Claims, error) {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "Access denied. No valid token provided.",
			Code:  "UNAUTHORIZED",
		})
	}
	return claims, nil
}
