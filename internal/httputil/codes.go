package httputil

// Machine-readable error codes returned alongside human messages so clients
// can branch without string matching.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"

	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeAlreadyVerified    = "already_verified"

	CodeMissingAuth       = "missing_authentication"
	CodeInvalidAuthHeader = "invalid_authorization_header"
	CodeInvalidToken      = "invalid_token"

	CodeNotFound      = "not_found"
	CodeMissingFile   = "missing_file"
	CodeInternalError = "internal_error"
)
