package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive data in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns detect secret material embedded in log values.
// Compiled once at package initialization.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),          // OpenAI / OpenRouter keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),   // bearer tokens
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),  // password= / password:
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),   // api_key= / api_key:
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),    // secret= / secret:
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),     // token= / token:
}

// sensitiveFieldNames are substrings of field names that indicate the whole
// value is secret and must never reach log output.
var sensitiveFieldNames = []string{
	"OPENAI_API_KEY",
	"OPENROUTER_API_KEY",
	"PASSWORD",
	"PASSWORD_HASH",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
}

// RedactSensitiveData scans a string and redacts detected secrets.
// Pure function: takes a string, returns a sanitized string.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField returns true if the field name indicates sensitive data.
//
// Example:
//
//	IsSensitiveField("OPENROUTER_API_KEY")  // true
//	IsSensitiveField("username")            // false
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)
	for _, name := range sensitiveFieldNames {
		if strings.Contains(upperName, name) {
			return true
		}
	}
	return false
}
