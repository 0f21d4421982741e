package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
	ErrCodeTimeout            ErrorCode = "COMMON_010"
)

// Company module error codes
const (
	ErrCodeCompanyNotFound ErrorCode = "CMP_001"
	ErrCodeRatingInvalid   ErrorCode = "CMP_002"
	ErrCodeRankingFailed   ErrorCode = "CMP_003"
)

// Portfolio module error codes
const (
	ErrCodePortfolioNotFound  ErrorCode = "PRT_001"
	ErrCodeAggregationFailed  ErrorCode = "PRT_002"
	ErrCodeInvestmentInvalid  ErrorCode = "PRT_003"
)

// Export module error codes
const (
	ErrCodeExportFailed ErrorCode = "EXP_001"
)

// CodeOK is the zero-error code returned by GetCode for nil errors.
const CodeOK = ErrorCode("OK")

// CodeUnknown marks errors that carry no AppError in their chain.
const CodeUnknown = ErrorCode("UNKNOWN")

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,

	ErrCodeCompanyNotFound: http.StatusNotFound,
	ErrCodeRatingInvalid:   http.StatusBadRequest,
	ErrCodeRankingFailed:   http.StatusInternalServerError,

	ErrCodePortfolioNotFound: http.StatusNotFound,
	ErrCodeAggregationFailed: http.StatusInternalServerError,
	ErrCodeInvestmentInvalid: http.StatusBadRequest,

	ErrCodeExportFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",

	ErrCodeCompanyNotFound: "company not found",
	ErrCodeRatingInvalid:   "invalid ESG rating",
	ErrCodeRankingFailed:   "ranking update failed",

	ErrCodePortfolioNotFound: "portfolio not found",
	ErrCodeAggregationFailed: "aggregate computation failed",
	ErrCodeInvestmentInvalid: "invalid investment amount",

	ErrCodeExportFailed: "data export failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
