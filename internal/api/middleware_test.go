package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{
			name:   "success response",
			status: "200",
			input:  map[string]string{"key": "value"},
		},
		{
			name:   "created response",
			status: "201",
			input:  map[string]string{"id": "123"},
		},
		{
			name:   "no content response",
			status: "204",
			input:  nil,
		},
		{
			name:   "bad request error",
			status: "400",
			input:  errors.New("invalid input"),
		},
		{
			name:   "not found error",
			status: "404",
			input:  errors.New("resource not found"),
		},
		{
			name:   "conflict error with details",
			status: "409",
			input: &APIError{
				Code:    "ALREADY_EXISTS",
				Message: "reference value already exists",
				Details: map[string]string{"existing_id": "123"},
			},
		},
		{
			name:   "internal server error",
			status: "500",
			input:  errors.New("internal error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			// Marshal to JSON and parse as generic map to check structure
			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			err = json.Unmarshal(jsonBytes, &envelope)
			require.NoError(t, err)

			// Verify version field exists and has correct value
			require.Contains(t, envelope, "v", "Envelope must contain version field 'v'")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"], "Version must be %d", EnvelopeVersion)
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"name": "Shalimar"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_ErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "STILL_REFERENCED",
		Message: "brand is still used",
		Details: map[string]int{"usage_count": 2},
	}

	result, err := EnvelopeTransformer(nil, "409", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "STILL_REFERENCED", envelope.Code)
	assert.Equal(t, "brand is still used", envelope.Message)
	assert.Equal(t, map[string]int{"usage_count": 2}, envelope.Details)
}

func TestEnvelopeTransformer_DomainError(t *testing.T) {
	domainErr := domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})

	result, err := EnvelopeTransformer(nil, "400", domainErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")

	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed", envelope.Message)
	assert.Equal(t, map[string]string{"name": "is required"}, envelope.Details)
}

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name       string
		status     int
		errs       []error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "schema failure becomes validation",
			status:     http.StatusUnprocessableEntity,
			errs:       []error{&huma.ErrorDetail{Location: "body.name", Message: "expected string"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "domain error keeps its code",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.NotFoundf("perfume %s not found", "pf-1")},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unexpected error",
			status:     http.StatusInternalServerError,
			errs:       []error{errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := huma.NewError(tt.status, "failed", tt.errs...)
			assert.Equal(t, tt.wantStatus, err.GetStatus())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:5000", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
