package github

import (
	"os"
	"strings"
)

// TokenEnvVar is the conventional environment variable holding a GitHub token.
const TokenEnvVar = "GITHUB_TOKEN"

// TokenFromEnv returns the API token from GITHUB_TOKEN.
// An empty result means unauthenticated access.
func TokenFromEnv() string {
	return strings.TrimSpace(os.Getenv(TokenEnvVar))
}
