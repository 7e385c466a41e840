// Package config defines the application configuration structure and
// loading logic. Configuration is read from an optional config.yaml file
// and from environment variables with the LESSONFORGE_ prefix; environment
// variables take precedence. Loaded configuration is validated with
// go-playground/validator before use.
package config
