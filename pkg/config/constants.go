package config

const (
	EnvPrefix = "WISHLIST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "WISHLIST_DB_DSN"
	EnvDBHost = "WISHLIST_DB_HOST"
	EnvDBUser = "WISHLIST_DB_USER"
	EnvDBName = "WISHLIST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
