package utils

import "strings"

// JoinHostPath joins a base URL and a relative path with exactly one slash.
// An empty path yields an empty string.
func JoinHostPath(host, path string) string {
	if path == "" {
		return ""
	}
	if host == "" {
		return path
	}
	return strings.TrimRight(host, "/") + "/" + strings.TrimLeft(path, "/")
}

// MaskURLCredentials hides the userinfo part of a URL for logging.
func MaskURLCredentials(raw string) string {
	schemeEnd := strings.Index(raw, "://")
	at := strings.LastIndex(raw, "@")
	if schemeEnd == -1 || at == -1 || at < schemeEnd {
		return raw
	}
	return raw[:schemeEnd+3] + "****:****@" + raw[at+1:]
}
