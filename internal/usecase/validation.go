package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateSubmitLeadInput checks the single-shot form and returns the first
// failing rule, in form order.
func ValidateSubmitLeadInput(input SubmitLeadInput) *ValidationError {
	if n := utf8.RuneCountInString(input.Name); n == 0 || n > entity.MaxNameLen {
		return &ValidationError{"name", "name is required and must not exceed 64 characters"}
	}

	if !entity.IsValidGender(input.Gender) {
		return &ValidationError{"gender", "please select a valid gender"}
	}

	if n := utf8.RuneCountInString(input.Contact); n == 0 || n > entity.MaxContactLen {
		return &ValidationError{"contact", "contact is required and must not exceed 128 characters"}
	}

	if n := utf8.RuneCountInString(input.Industry); n == 0 || n > entity.MaxIndustryLen {
		return &ValidationError{"industry", "industry is required and must not exceed 128 characters"}
	}

	if n := utf8.RuneCountInString(input.JobRole); n == 0 || n > entity.MaxJobRoleLen {
		return &ValidationError{"job_role", "job role is required and must not exceed 128 characters"}
	}

	if !entity.IsValidPreference(input.PreferenceType) {
		return &ValidationError{"preference_type", "please select a preference type"}
	}

	if input.PreferenceType == entity.PreferenceInvest && input.InvestmentPreference == "" {
		return &ValidationError{"investment_preference", "investment preference is required when investing"}
	}

	if input.PreferenceType == entity.PreferenceIncubate && input.IncubationInfo == "" {
		return &ValidationError{"incubation_info", "incubation details are required when incubating"}
	}

	if input.Age != "" {
		if _, ok := parseAge(input.Age); !ok {
			return &ValidationError{"age", "age must be an integer between 0 and 120"}
		}
	}

	return nil
}

// parseAge accepts an integer in [0,120].
func parseAge(raw string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || age < entity.MinAge || age > entity.MaxAge {
		return 0, false
	}
	return age, true
}

// clip trims whitespace and cuts s to at most max characters.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// optional maps an empty value to SQL NULL for nullable columns.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
