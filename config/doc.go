// Package config loads the gateway configuration.
//
// Configuration comes from an optional YAML file, in which ${VAR} references
// are expanded from the environment, layered over Default. A fixed set of
// environment variables then overrides the file:
//
//	API_KEY              auth.api_key
//	TURSO_DATABASE_URL   purchase_log.url
//	TURSO_AUTH_TOKEN     purchase_log.auth_token
//	MCP_ADDR             server.http_addr
//	MCP_DATABASE_PATH    database.path
//	MCP_LOG_LEVEL        logging.level
//
// The returned *Config is treated as immutable once loaded.
package config
