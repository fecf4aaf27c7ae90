// Package constants vends constants used in various components of photo service, e.g., env var names
package constants

const (
	// -------------- env vars --------------
	// common
	EnvVerbose = "PHOTO_VERBOSE"
	// server
	EnvAppHost             = "PHOTO_HOST"
	EnvAppPort             = "PHOTO_PORT"
	EnvReqBodySizeMaxByte  = "PHOTO_REQ_BODY_SIZE_MAX_BYTE"
	EnvImagePixelsMax      = "PHOTO_IMAGE_PIXELS_MAX"
	EnvRateLimit           = "PHOTO_RATE_LIMIT"
	EnvRateBurst           = "PHOTO_RATE_BURST"
	EnvTrustForwardedProto = "PHOTO_TRUST_FORWARDED_PROTO"
	EnvStartupTimeout      = "PHOTO_STARTUP_TIMEOUT"
	EnvShutdownTimeout     = "PHOTO_SHUTDOWN_TIMEOUT"
	// stores
	EnvStorageConnection = "PHOTO_STORAGE_CONNECTION"
	// auth
	EnvAuthDisabled         = "PHOTO_AUTH_DISABLED"
	EnvAuthMode             = "PHOTO_AUTH_MODE"
	EnvSessionSecret        = "PHOTO_SESSION_SECRET"
	EnvSessionName          = "PHOTO_SESSION_NAME"
	EnvBasicCredentialsFile = "PHOTO_BASIC_CREDENTIALS_FILE"
	// events
	EnvKafkaBrokers = "PHOTO_KAFKA_BROKERS"
	EnvKafkaTopic   = "PHOTO_KAFKA_TOPIC"

	// -------------- photo storage --------------
	// ContainerName is the single storage namespace holding all photos
	ContainerName = "photos"
	// MetaKeyOwner is the object metadata key holding the principal who uploaded the photo
	MetaKeyOwner = "htbox-user-principal"
	// ContentTypePhoto is stamped onto every stored photo after upload
	ContentTypePhoto = "image/jpg"
	PhotoExt         = ".jpg"

	// -------------- http --------------
	RoutePhoto         = "/api/photo"
	RoutePhotoByID     = "/api/photo/:id"
	RouteMetrics       = "/metrics"
	HeaderRequestID    = "X-Request-Id"
	HeaderForwardProto = "X-Forwarded-Proto"

	// -------------- response messages --------------
	MsgInvalidOperation = "Invalid operation requested."
	MsgSaveFailed       = "Failed to save image."
	MsgDeleteFailed     = "Failed to delete existing photo."

	// -------------- log fields --------------
	LogFieldFuncName  = "funcName"
	LogFieldRequestID = "requestID"
	LogFieldPhoto     = "photo"
	LogFieldPrincipal = "principal"
	LogFieldContainer = "container"
)
