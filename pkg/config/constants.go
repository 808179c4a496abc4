package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "BAZAARLY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BAZAARLY_DB_DSN"
	EnvDBHost = "BAZAARLY_DB_HOST"
	EnvDBUser = "BAZAARLY_DB_USER"
	EnvDBName = "BAZAARLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
