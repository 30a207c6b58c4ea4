package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTDBType          string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath          string = "IOT_DB_PATH"
	EnvKeyIOTDbDSN           string = "IOT_DB_DSN"
	EnvKeyIOTDbAutoMigrate   string = "IOT_DB_AUTO_MIGRATE"
	EnvKeyIOTHttpHostPort    string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort    string = "IOT_GRPC_HOST_PORT"
	EnvKeyIOTJwtSecret       string = "IOT_JWT_SECRET"
	EnvKeyIOTJwtAccessTTL    string = "IOT_JWT_ACCESS_TTL"
	EnvKeyIOTJwtRefreshTTL   string = "IOT_JWT_REFRESH_TTL"
	EnvKeyIOTUserEndpoint    string = "IOT_NEXTCLOUD_USER_ENDPOINT"
	EnvKeyIOTWebdavEndpoint  string = "IOT_NEXTCLOUD_WEBDAV"
	EnvKeyIOTAllowedExt      string = "IOT_ALLOWED_EXTENSIONS"
	EnvKeyIOTMaxContentLen   string = "IOT_MAX_CONTENT_LENGTH"
	EnvKeyIOTUpstreamTimeout string = "IOT_UPSTREAM_TIMEOUT"
	EnvKeyIOTBreakerFailures string = "IOT_BREAKER_FAILURES"
	EnvKeyIOTStorageNS       string = "IOT_STORAGE_NAMESPACE"
	EnvKeyIOTMinMimetype     string = "IOT_MIN_MIMETYPE_CLASS"
	EnvKeyIOTLogDir          string = "IOT_LOG_DIR"

	LoggerNameGateway       string = "gateway"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameAuth          string = "auth"
	LoggerNameStorage       string = "storage"
	LoggerFieldCategory     string = "category"

	LoggerCategoryDatatype   string = "datatype"
	LoggerCategoryDevice     string = "device"
	LoggerCategorySensor     string = "sensor"
	LoggerCategoryTag        string = "tag"
	LoggerCategoryFileDetail string = "filedetail"
	LoggerCategoryUpload     string = "upload"
	LoggerCategoryOwnership  string = "ownership"
)
