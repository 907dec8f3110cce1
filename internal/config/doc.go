// Package config loads the housing tool settings from a JSON file and
// HOUSING_* environment variables.
package config
