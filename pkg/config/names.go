package config

// EnvPrefix is the envconfig prefix shared by every TIENDA_* variable.
const EnvPrefix = "TIENDA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error
// messages).
const (
	EnvAppEnv     = "TIENDA_APP_ENV"
	EnvPort       = "TIENDA_APP_PORT"
	EnvDBDSN      = "TIENDA_DB_DSN"
	EnvDBHost     = "TIENDA_DB_HOST"
	EnvDBUser     = "TIENDA_DB_USER"
	EnvDBName     = "TIENDA_DB_NAME"
	EnvRedisURL   = "TIENDA_REDIS_URL"
	EnvJWTSecret  = "TIENDA_JWT_SECRET"
	EnvJWTIssuer  = "TIENDA_JWT_ISSUER"
	EnvMPToken    = "TIENDA_MP_ACCESS_TOKEN"
	EnvSuccessURL = "TIENDA_CHECKOUT_SUCCESS_URL"
	EnvFailureURL = "TIENDA_CHECKOUT_FAILURE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
