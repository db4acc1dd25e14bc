package storage_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"artifact-store/core/storage"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want storage.Code
	}{
		{"NoSuchKey", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, storage.CodeNotFound},
		{"Bare404", minio.ErrorResponse{StatusCode: http.StatusNotFound}, storage.CodeNotFound},
		{"AccessDenied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, storage.CodePermissionDenied},
		{"BadRequest", minio.ErrorResponse{StatusCode: http.StatusBadRequest}, storage.CodeBadRequest},
		{"SlowDown", minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, storage.CodeUnavailable},
		{"TooManyRequests", minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}, storage.CodeUnavailable},
		{"InternalError", minio.ErrorResponse{StatusCode: http.StatusInternalServerError}, storage.CodeUnavailable},
		{"GatewayTimeout", minio.ErrorResponse{StatusCode: http.StatusGatewayTimeout}, storage.CodeUnavailable},
		{"Deadline", context.DeadlineExceeded, storage.CodeUnavailable},
		{"WrappedDeadline", fmt.Errorf("put: %w", context.DeadlineExceeded), storage.CodeUnavailable},
		{"NetTimeout", timeoutErr{}, storage.CodeUnavailable},
		{"ACLNotSupported", &smithy.GenericAPIError{Code: "AccessControlListNotSupported"}, storage.CodeBadRequest},
		{"AWSAccessDenied", &smithy.GenericAPIError{Code: "AccessDenied"}, storage.CodePermissionDenied},
		{"Teapot", minio.ErrorResponse{StatusCode: http.StatusTeapot}, storage.CodeInternal},
		{"Unknown", errors.New("boom"), storage.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Classify("stat", "users/u/c/k.png", tt.err)
			assert.Equal(t, tt.want, storage.CodeOf(err))
			assert.Equal(t, tt.err, errors.Unwrap(err))
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.NoError(t, storage.Classify("stat", "k", nil))

	typed := storage.Errorf(storage.CodeValidation, "owner is required")
	assert.Same(t, typed, storage.Classify("stat", "k", typed))
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := storage.Classify("stat", "k", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NotErrorIs(t, err, storage.ErrPermissionDenied)
	assert.ErrorIs(t, fmt.Errorf("delete: %w", err), storage.ErrNotFound)
	assert.Contains(t, err.Error(), "stat: NOT_FOUND (k)")
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code storage.Code
		want int
	}{
		{storage.CodeValidation, http.StatusBadRequest},
		{storage.CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{storage.CodeUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{storage.CodeNotFound, http.StatusNotFound},
		{storage.CodePermissionDenied, http.StatusForbidden},
		{storage.CodeBadRequest, http.StatusBadRequest},
		{storage.CodeUnavailable, http.StatusServiceUnavailable},
		{storage.CodeFatalInit, http.StatusServiceUnavailable},
		{storage.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, storage.Code(""), storage.CodeOf(nil))
	assert.Equal(t, storage.CodeInternal, storage.CodeOf(errors.New("plain")))
	assert.True(t, storage.CodeUnavailable.Transient())
	assert.False(t, storage.CodeNotFound.Transient())
	assert.True(t, storage.CodeNotFound.Expected())
	assert.False(t, storage.CodeInternal.Expected())
}
