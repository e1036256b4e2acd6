// Package config loads lukso-gateway configuration.
//
// Files are YAML unless the path ends in .toml. ${VAR} references are replaced
// with environment values before parsing, and duration fields are written as
// Go duration strings ("1s", "15m").
//
//	server:
//	  http_addr: ":3001"
//	  cors_origins: ["http://localhost:5173"]
//	database:
//	  path: "~/.local/share/lukso/gateway.db"
//	auth:
//	  jwt_secret: "${LUKSO_JWT_SECRET}"
//	assistant:
//	  api_key: "${OPENAI_API_KEY}"
//	  assistant_id: "asst_..."
//	  poll_interval: "1s"
//	  max_poll_attempts: 30
//
// DefaultPath resolves LUKSO_CONFIG first, then $XDG_CONFIG_HOME/lukso/gateway.yaml.
package config
