package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cpsportal/catalog_backend/utils"
)

// ValidationError is the normal negative result of the field validator:
// user-correctable, carries a human-readable reason, maps to a 400 response.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	// Prefix match, so trailing text after a well-formed id is tolerated.
	cvePattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}`)

	urlPattern = regexp.MustCompile(`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?` + // domain
		`|localhost` +
		`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` + // or dotted-quad IP
		`(?::\d+)?` + // optional port
		`(?:/?|[/?]\S+)$`)
)

// ValidateField checks a proposed override value against the rules for its
// field. A nil return means accepted; a non-nil return is always a
// *ValidationError. Field names without wired rules always pass.
func ValidateField(fieldName string, value string) error {
	switch fieldName {
	case "potential_cves":
		return validateCves(value)
	case "links", "image_url":
		return validateURL(fieldName, value)
	case "is_eol":
		return validateEnum(fieldName, value, IsEolValues)
	case "patching_responsibility":
		return validateEnum(fieldName, value, PatchingResponsibilityValues)
	case "certified_patches":
		return validateCertifiedPatches(value)
	case "pre_installed_applications":
		return validatePreInstalledApplications(value)
	}
	return nil
}

// validateCves accepts a JSON array (objects with a cve/CVE key, or bare
// values) or a comma-separated list; every token must look like CVE-YYYY-NNNN.
func validateCves(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var parsed []any
	if err := utils.UnmarshalFromJSON([]byte(value), &parsed); err == nil {
		for _, item := range parsed {
			cve := ""
			if obj, ok := item.(map[string]any); ok {
				v, ok := obj["cve"]
				if !ok {
					v = obj["CVE"]
				}
				if v != nil {
					cve = jsonValueString(v)
				}
			} else if item != nil {
				cve = jsonValueString(item)
			}
			if cve != "" && !cvePattern.MatchString(strings.TrimSpace(cve)) {
				return invalidCve(cve)
			}
		}
		return nil
	}

	// Fallback to comma-separated format.
	for _, cve := range strings.Split(value, ",") {
		cve = strings.TrimSpace(cve)
		if cve != "" && !cvePattern.MatchString(cve) {
			return invalidCve(cve)
		}
	}
	return nil
}

func invalidCve(token string) *ValidationError {
	return &ValidationError{
		Field:  "potential_cves",
		Reason: fmt.Sprintf("Invalid CVE format: %s. Expected format: CVE-YYYY-NNNN", token),
	}
}

func validateURL(fieldName string, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if urlPattern.MatchString(value) {
		return nil
	}
	return &ValidationError{Field: fieldName, Reason: "Invalid URL format"}
}

func validateEnum(fieldName string, value string, allowed []string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	for _, v := range allowed {
		if value == v {
			return nil
		}
	}
	return &ValidationError{
		Field:  fieldName,
		Reason: fmt.Sprintf("Invalid value. Must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// validateCertifiedPatches requires every element of a JSON array to be an
// object carrying kb and/or link. Values that are not a JSON array pass
// unchanged (legacy free-text compatibility).
func validateCertifiedPatches(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var parsed []any
	if err := utils.UnmarshalFromJSON([]byte(value), &parsed); err != nil {
		return nil
	}
	for _, item := range parsed {
		obj, ok := item.(map[string]any)
		if !ok {
			return &ValidationError{
				Field:  "certified_patches",
				Reason: "Each patch item must be an object with 'kb' and/or 'link' fields",
			}
		}
		if !truthyJSON(obj["kb"]) && !truthyJSON(obj["link"]) {
			return &ValidationError{
				Field:  "certified_patches",
				Reason: "Each patch item must have at least 'kb' or 'link' field",
			}
		}
	}
	return nil
}

// validatePreInstalledApplications requires every element of a JSON array to
// be an object with a non-empty app name and a Relevant/Irrelevant tag.
// Non-JSON values pass unchanged.
func validatePreInstalledApplications(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var parsed []any
	if err := utils.UnmarshalFromJSON([]byte(value), &parsed); err != nil {
		return nil
	}
	for _, item := range parsed {
		obj, ok := item.(map[string]any)
		if !ok {
			return &ValidationError{
				Field:  "pre_installed_applications",
				Reason: "Each app item must be an object with 'app' and 'relevance' fields",
			}
		}
		if !truthyJSON(obj["app"]) {
			return &ValidationError{
				Field:  "pre_installed_applications",
				Reason: "Each app item must have an 'app' field",
			}
		}
		relevance, _ := obj["relevance"].(string)
		if relevance != "Relevant" && relevance != "Irrelevant" {
			return &ValidationError{
				Field:  "pre_installed_applications",
				Reason: "Relevance must be either 'Relevant' or 'Irrelevant'",
			}
		}
	}
	return nil
}

// truthyJSON reports whether a decoded JSON value is non-empty: nil, false,
// 0, "" and empty containers all count as absent.
func truthyJSON(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// jsonValueString renders a decoded JSON scalar for an error message without
// the scientific notation %v gives large float64 values.
func jsonValueString(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
