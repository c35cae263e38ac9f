package utils

import "os"

// SafeEnv reads key from the environment, falling back to the given default
// when it is unset or empty. All ISTIBYAN_* server configuration goes
// through this so empty exported variables behave the same as missing ones.
func SafeEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
