// Package config loads runtime configuration for the FoodKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config.
//  3. A .env file in the working directory, if present, then the process
//     environment (FOODKEEPER_* variables).
//  4. Command-line flags bound with (*Config).BindFlags, which override
//     everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be either strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "store_path": "foodkeeper.db",
//	  "request_timeout": "10s",
//	  "revalidate_interval": "1m",
//	  "log_level": "info"
//	}
//
// # Environment
//
//	FOODKEEPER_SERVER_URL, FOODKEEPER_STORE_PATH, FOODKEEPER_REQUEST_TIMEOUT,
//	FOODKEEPER_REVALIDATE_INTERVAL, FOODKEEPER_LOG_LEVEL
package config
