package errors

// Code represents an error code
type Code string

// Error codes
const (
	CodeUnknown              Code = "UNKNOWN"                // Unknown error occurred
	CodeInternalError        Code = "INTERNAL_ERROR"         // Internal system error
	CodeValidationFailed     Code = "VALIDATION_FAILED"      // Input validation failed
	CodeInvalidParameter     Code = "INVALID_PARAMETER"      // Invalid parameter provided
	CodeIoError              Code = "IO_ERROR"               // Input/output operation failed
	CodeNotFound             Code = "NOT_FOUND"              // Not found
	CodeAlreadyExists        Code = "ALREADY_EXISTS"         // Already exists
	CodeNetworkError         Code = "NETWORK_ERROR"          // Network error
	CodeConfigurationInvalid Code = "CONFIGURATION_INVALID"  // Configuration invalid
	CodeCloneFailed          Code = "CLONE_FAILED"           // Repository clone failed
	CodeManifestParseFailed  Code = "MANIFEST_PARSE_FAILED"  // Dependency manifest could not be parsed
	CodeMalformedResponse    Code = "MALFORMED_RESPONSE"     // Reasoning engine output unusable
	CodeMissingCredential    Code = "MISSING_CREDENTIAL"     // Required API credential absent
	CodeInvalidTransition    Code = "INVALID_TRANSITION"     // Fix proposal status transition not allowed
	CodeTemplateRenderFailed Code = "TEMPLATE_RENDER_FAILED" // Prompt template could not be rendered
)
