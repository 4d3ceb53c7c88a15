package config

import "fmt"

// NotFoundError represents a missing config file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s\n\n💡 Defaults are used when the file is absent", e.Path)
}

// InvalidError represents a malformed config file.
type InvalidError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidError) Error() string {
	msg := fmt.Sprintf("invalid config: %s\n", e.Path)
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}
