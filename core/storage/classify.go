package storage

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// statusCoder is implemented by aws-sdk-go-v2 HTTP response errors.
type statusCoder interface {
	HTTPStatusCode() int
}

// Classify turns a raw backend failure into a typed *Error.
// It is applied once, at the point where a backend call returns.
func Classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Code: classifyCode(err), Op: op, Key: key, Err: err}
}

func classifyCode(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeUnavailable
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		if code, ok := codeFromAPI(resp.Code); ok {
			return code
		}
		if code, ok := codeFromStatus(resp.StatusCode); ok {
			return code
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if code, ok := codeFromAPI(apiErr.ErrorCode()); ok {
			return code
		}
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		if code, ok := codeFromStatus(sc.HTTPStatusCode()); ok {
			return code
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeUnavailable
	}

	return CodeInternal
}

func codeFromAPI(code string) (Code, bool) {
	switch code {
	case "NoSuchKey", "NoSuchBucket", "NotFound", "NoSuchObject":
		return CodeNotFound, true
	case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return CodePermissionDenied, true
	case "AccessControlListNotSupported", "InvalidRequest", "InvalidArgument", "BadRequest",
		"InvalidBucketName", "InvalidObjectName", "MalformedACLError":
		return CodeBadRequest, true
	case "SlowDown", "TooManyRequests", "RequestLimitExceeded", "ServiceUnavailable",
		"InternalError", "RequestTimeout", "XMinioServerNotInitialized":
		return CodeUnavailable, true
	}
	return "", false
}

func codeFromStatus(status int) (Code, bool) {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound, true
	case http.StatusForbidden, http.StatusUnauthorized:
		return CodePermissionDenied, true
	case http.StatusBadRequest:
		return CodeBadRequest, true
	case http.StatusTooManyRequests, http.StatusServiceUnavailable,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeUnavailable, true
	}
	return "", false
}
