package risk

import "fmt"

// Error codes for risk engine failures
const (
	ErrRiskLimitsExceeded = "RISK_LIMITS_EXCEEDED"
	ErrExposureExceeded   = "EXPOSURE_EXCEEDED"
	ErrRewardTooLow       = "REWARD_TOO_LOW"
	ErrPositionNotFound   = "POSITION_NOT_FOUND"
	ErrDuplicatePosition  = "DUPLICATE_POSITION"
	ErrInvalidInput       = "INVALID_INPUT"
)

// RiskError is a categorized risk engine error. Every rejection carries a
// specific code and reason, never a bare boolean.
type RiskError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *RiskError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewRiskError creates a new categorized risk error
func NewRiskError(code, format string, args ...interface{}) *RiskError {
	return &RiskError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsRiskErrorCode reports whether err is a RiskError with the given code.
func IsRiskErrorCode(err error, code string) bool {
	riskErr, ok := err.(*RiskError)
	return ok && riskErr.Code == code
}
