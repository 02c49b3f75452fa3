// Package integration provides integration tests for the Vicius manifest server.
// They start the complete application against a fake GitHub API and exercise
// the HTTP surface the updater talks to.
package integration
