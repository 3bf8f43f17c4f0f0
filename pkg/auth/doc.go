// Package auth obtains GitHub access tokens with the OAuth device flow.
package auth
