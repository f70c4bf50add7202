package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

var fiberCtxKey = &contextKey{"fiber"}

// Envelope is the JSON body of every API response
type Envelope struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Respond writes a success envelope
func Respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{
		Data:    data,
		Status:  status,
		Success: status < fiber.StatusBadRequest,
	})
}

// ErrorHandler renders err as an error envelope. It is used both as the
// fiber app error handler and as the request authenticator translator.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, message := StatusFromError(err)
	return c.Status(status).JSON(Envelope{
		Status:  status,
		Success: false,
		Message: message,
	})
}

// StatusFromError maps an error to its HTTP status and public message.
// Anything unknown becomes a 500 with a generic message.
func StatusFromError(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		return fiber.StatusInternalServerError, "An unexpected error occurred"
	}

	switch rich.TextCode {
	case TextCodeInvalidToken, TextCodeAccessDenied:
		return fiber.StatusForbidden, rich.Message
	case TextCodeInvalidCredentials, TextCodeAccountInactive, TextCodeUnauthenticated:
		return fiber.StatusUnauthorized, rich.Message
	case TextCodeWeakPassword:
		return fiber.StatusBadRequest, rich.Message
	case TextCodeNotFound:
		return fiber.StatusNotFound, rich.Message
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest, rich.Message
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound, rich.Message
	case goerrors.CategoryConflict:
		return fiber.StatusConflict, rich.Message
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized, rich.Message
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden, rich.Message
	}
	return fiber.StatusInternalServerError, "An unexpected error occurred"
}

// FiberErrorTranslator adapts a fiber error handler to ErrorTranslator.
// It needs the context built by BearerMiddleware.
func FiberErrorTranslator(handler fiber.ErrorHandler) ErrorTranslator {
	if handler == nil {
		handler = ErrorHandler
	}
	return func(ctx context.Context, err error) error {
		c, ok := ctx.Value(fiberCtxKey).(*fiber.Ctx)
		if !ok || c == nil {
			return err
		}
		return handler(c, err)
	}
}

// BearerMiddleware runs ra for every request. Downstream handlers find
// the SecurityContext in c.UserContext() and under localsKey.
func BearerMiddleware(ra *RequestAuthenticator, localsKey string) fiber.Handler {
	if localsKey == "" {
		localsKey = DefaultContextKey
	}
	return func(c *fiber.Ctx) error {
		ctx := context.WithValue(c.UserContext(), fiberCtxKey, c)
		return ra.Authenticate(ctx, c.Get(fiber.HeaderAuthorization), func(ctx context.Context) error {
			c.SetUserContext(ctx)
			if sc, ok := SecurityContextFrom(ctx); ok {
				c.Locals(localsKey, sc)
			}
			return c.Next()
		})
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentPrincipal(c.UserContext()); !ok {
			return ErrUnauthenticated
		}
		return c.Next()
	}
}

// RequireRoles lets the request through when the principal holds any of
// roles. Anonymous requests get 401, others 403.
func RequireRoles(roles ...RoleName) fiber.Handler {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c.UserContext())
		if !ok {
			return ErrUnauthenticated
		}
		if !principal.Roles.HasAny(names...) {
			return withMetadata(ErrAccessDenied, map[string]any{"required": names})
		}
		return c.Next()
	}
}
