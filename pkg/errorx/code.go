package errorx

import "net/http"

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010
	Misconfigured    Code = 100011

	// Payment codes
	PaymentRequired     Code = 200001
	PaymentNotVerified  Code = 200002
	InsufficientBalance Code = 200003

	// Mint codes
	AlreadyMinted     Code = 300001
	ArtifactTooLarge  Code = 300002
	RecipientMismatch Code = 300003
	VoucherExpired    Code = 300004

	// Generation codes
	GeneratorUnavailable Code = 400001
	GeneratorNoCredits   Code = 400002
)

// HTTPStatus maps a code to the status written on the wire. Clients rely on
// it to tell validation failures apart from retryable server failures.
func (c Code) HTTPStatus() int {
	switch c {
	case BadRequest, ArtifactTooLarge, RecipientMismatch, VoucherExpired:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PaymentRequired, PaymentNotVerified, InsufficientBalance:
		return http.StatusPaymentRequired
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, AlreadyMinted:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	case Unavailable, GeneratorUnavailable, GeneratorNoCredits:
		return http.StatusServiceUnavailable
	case NotImplemented:
		return http.StatusNotImplemented
	case BadResponse:
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
