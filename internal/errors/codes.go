package errors

// Machine-readable error codes returned in the "error" field.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own copy.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzAccessDenied = "AUTHZ_ACCESS_DENIED"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound   = "CATALOG_PRODUCT_NOT_FOUND"
	CatalogNotConfigured     = "CATALOG_NOT_CONFIGURED"
	CatalogLayerNotFound     = "CATALOG_LAYER_NOT_FOUND"
	CatalogInvalid           = "CATALOG_INVALID"
	CatalogInvalidLayerOrder = "CATALOG_INVALID_LAYER_ORDER"

	// ==================== Configuration (CONFIG_) ====================
	// One code per validation failure kind.
	ConfigMissingLayerSelection = "CONFIG_MISSING_LAYER_SELECTION"
	ConfigInvalidSelection      = "CONFIG_INVALID_SELECTION"
	ConfigInvalidSize           = "CONFIG_INVALID_SIZE"
	ConfigQuantityTooLow        = "CONFIG_QUANTITY_TOO_LOW"
	ConfigMissingSize           = "CONFIG_MISSING_SIZE"
	ConfigMissingQuantity       = "CONFIG_MISSING_QUANTITY"
	ConfigInvalid               = "CONFIG_INVALID"

	// ==================== Preview (PREVIEW_) ====================
	PreviewUnavailable = "PREVIEW_UNAVAILABLE"

	// ==================== RFQ (RFQ_) ====================
	RFQNotFound          = "RFQ_NOT_FOUND"
	RFQInvalidStatus     = "RFQ_INVALID_STATUS"
	RFQInvalidTransition = "RFQ_INVALID_TRANSITION"
	RFQConflict          = "RFQ_CONFLICT"
	RFQClosed            = "RFQ_CLOSED"
	RFQInvalidCustomer   = "RFQ_INVALID_CUSTOMER"
	RFQInvalidPricing    = "RFQ_INVALID_PRICING"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadNotSupported    = "UPLOAD_NOT_SUPPORTED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
