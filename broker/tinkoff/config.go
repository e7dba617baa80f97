package tinkoff

import (
	"fmt"
	"os"
)

const (
	EnvToken     = "TINKOFF_TOKEN"
	EnvAccountID = "TINKOFF_ACCOUNT_ID"
)

// FromEnv builds a client from TINKOFF_TOKEN and TINKOFF_ACCOUNT_ID.
// The account ID is only required for order placement, so it may be empty.
func FromEnv() (*Client, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, fmt.Errorf("tinkoff: %s is not set", EnvToken)
	}
	return NewClient(token, os.Getenv(EnvAccountID)), nil
}
