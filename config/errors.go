package config

import "errors"

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidMaxFileSize indicates the maximum file size is not positive.
	ErrInvalidMaxFileSize = errors.New("config: max file size must be positive")

	// ErrInvalidRetention indicates the default retention period is not positive.
	ErrInvalidRetention = errors.New("config: default retention days must be positive")

	// ErrInvalidRecordCapacity indicates the record capacity is not positive.
	ErrInvalidRecordCapacity = errors.New("config: record capacity must be positive")

	// ErrInvalidEndpoint indicates a content endpoint URL is malformed.
	ErrInvalidEndpoint = errors.New("config: invalid content endpoint")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
