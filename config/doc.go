// Package config loads and validates netstore configuration.
//
// It uses Viper to load configuration from a YAML file and environment
// variables, with an optional .env file loaded via godotenv. Environment
// variables override file values using underscore-separated paths
// (e.g. CLIENT_BASE_URL, CACHE_MAX_ENTRIES).
package config
