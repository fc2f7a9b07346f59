package httpserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/apperr"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeError maps err onto its apperr status and envelope. Client-caused
// errors keep their message; server-side ones use the public text.
func (h *handlers) writeError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.CodeInternal, err, "unexpected error")
	}
	meta := apperr.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case apperr.CodeValidation, apperr.CodeUnauthorized, apperr.CodeNotFound, apperr.CodeConflict, apperr.CodeEmptyCart:
		if m := typed.Message(); m != "" {
			msg = m
		}
	default:
		h.logger.Error().Err(err).Str("code", string(typed.Code())).Str("path", c.Request.URL.Path).Msg("http: request failed")
	}

	payload := apiError{Code: string(typed.Code()), Message: msg}
	if meta.DetailsAllowed {
		payload.Details = typed.Details()
	}
	_ = c.Error(err)

	body := gin.H{"error": payload}
	if id := sessionID(c); id != "" {
		body["notices"] = h.deps.Notices.Drain(id)
	}
	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}

func badRequest(message string, details any) error {
	return apperr.New(apperr.CodeValidation, message).WithDetails(details)
}
