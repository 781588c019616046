package config

const (
	// EnvPrefix namespaces every environment variable the engine reads.
	EnvPrefix = "NETIMOB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NETIMOB_DB_DSN"
	EnvDBHost = "NETIMOB_DB_HOST"
	EnvDBUser = "NETIMOB_DB_USER"
	EnvDBName = "NETIMOB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
