package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/http/response"
)

// EnvelopeVersion is the schema version sent as "v" in every body.
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful bodies and uncoded errors.
type APIEnvelope = response.Envelope //nolint:revive // Mirrors APIError.

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // Mirrors APIError.

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope. Coded errors keep their code, message and details.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)
	if code >= http.StatusBadRequest || isError(v) {
		return errorEnvelope(v), nil
	}
	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}

func isError(v any) bool {
	_, ok := v.(error)
	return ok
}

func errorEnvelope(v any) any {
	var apiErr *APIError
	var domainErr *domainerrors.Error
	err, _ := v.(error)
	switch {
	case errors.As(err, &apiErr) && apiErr.Code != "":
		return APIErrorEnvelope{Version: EnvelopeVersion, Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	case errors.As(err, &domainErr):
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	case err != nil:
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}
	default:
		return APIEnvelope{Version: EnvelopeVersion}
	}
}
