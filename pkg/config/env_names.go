package config

const EnvPrefix = "VENTAS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv      = "VENTAS_APP_ENV"
	EnvPort        = "VENTAS_APP_PORT"
	EnvLogLevel    = "VENTAS_LOG_LEVEL"
	EnvDatasetPath = "VENTAS_DATASET_PATH"
	EnvDateFormat  = "VENTAS_DATASET_DATE_FORMAT"
)
