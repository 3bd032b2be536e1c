// Package config loads runtime configuration for the vaultkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "data_dir": ".vaultkeeper",
//	  "database_file": "client.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s"
//	}
package config
