package accountclient

import (
	"errors"
	"fmt"
)

type apiError interface {
	Error() string
	getType() string
}

type ApiError struct {
	Err        error
	Text       string
	StatusCode int
	RawData    *[]byte
}

func apiErrorString(typeName string, e ApiError) string {
	return fmt.Sprintf("%s: %s, status code: %d, original error: %v, raw response: %s",
		typeName, e.Text, e.StatusCode, e.Err, func() string {
			if e.RawData != nil {
				return string(*e.RawData)
			}
			return ""
		}(),
	)
}

func (e ApiError) Error() string {
	return apiErrorString(e.getType(), e)
}

func (e ApiError) getType() string {
	return "ApiError"
}

type ApiNetworkError ApiError

func (e ApiNetworkError) getType() string {
	return "ApiNetworkError"
}

func (e ApiNetworkError) Error() string {
	return fmt.Sprintf("%s: could not connect to account service: %v", e.getType(), e.Err)
}

type ApiAuthorizationError ApiError

func (e ApiAuthorizationError) getType() string {
	return "ApiAuthorizationError"
}
func (e ApiAuthorizationError) Error() string {
	return apiErrorString(e.getType(), ApiError(e))
}

type ApiBadRequestError ApiError

func (e ApiBadRequestError) getType() string {
	return "ApiBadRequestError"
}
func (e ApiBadRequestError) Error() string {
	return apiErrorString(e.getType(), ApiError(e))
}

type ApiNotFoundError ApiError

func (e ApiNotFoundError) getType() string {
	return "ApiNotFoundError"
}
func (e ApiNotFoundError) Error() string {
	return apiErrorString(e.getType(), ApiError(e))
}

type ApiInternalError ApiError

func (e ApiInternalError) getType() string {
	return "ApiInternalError"
}
func (e ApiInternalError) Error() string {
	return apiErrorString(e.getType(), ApiError(e))
}

var ObjectNotFoundError = errors.New("object not found")
var UnsupportedApiVersionError = errors.New("account service API version is not supported")
