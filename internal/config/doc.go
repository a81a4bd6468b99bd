// Package config loads application settings with viper from defaults, an
// optional YAML file and VOCABWEAVE_-prefixed environment variables, and
// validates the result with go-playground/validator before any component
// starts.
package config
