package logger

import (
	"go.uber.org/zap"
)

// New builds the application logger. Development mode gets human-readable
// console output, anything else gets production JSON.
func New(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
