package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
)

// toAppError maps domain failures onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var ve *models.ValidationError
	var de *models.DataError
	switch {
	case errors.As(err, &ve):
		field := "signals"
		if ve.Field != "" {
			field += "." + strings.ToLower(ve.Field)
		}
		return xhttp.NewAppError("ERR_INVALID_SIGNAL", field, ve.Error(), http.StatusBadRequest).
			WithParam("index", ve.Index).
			WithParam("source", ve.Source).
			WithError(err)
	case errors.As(err, &de):
		appErr := xhttp.NewAppError("ERR_INVALID_SERIES", "prices", de.Error(), http.StatusBadRequest).WithError(err)
		if de.Required > 0 {
			appErr.WithParam("required", de.Required).WithParam("got", de.Got)
		} else {
			appErr.WithParam("index", de.Index)
		}
		return appErr
	case errors.Is(err, models.ErrInvalidRequest):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoModelAvailable):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrPriceStoreDisabled), errors.Is(err, usecase.ErrSourceUnavailable):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("request timed out").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
