package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// DiffIdSets splits desired against existing into the ids to insert and the
// ids to delete. Order within each slice follows the input order.
func DiffIdSets(existing []int, desired []int) (toAdd []int, toRemove []int) {
	existingSet := make(map[int]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}
	desiredSet := make(map[int]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
		if !existingSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range existing {
		if !desiredSet[id] {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func AreIntSlicesEqual(slice1, slice2 []int) bool {
	if len(slice1) != len(slice2) {
		return false
	}
	set := make(map[int]int, len(slice1))
	for _, v := range slice1 {
		set[v]++
	}
	for _, v := range slice2 {
		set[v]--
		if set[v] < 0 {
			return false
		}
	}
	return true
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	if phoneNumber == "" {
		return nil
	}
	num, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return errors.New("invalid phone number")
	}
	if !libphonenumber.IsValidNumber(num) {
		return errors.New("invalid phone number")
	}
	return nil
}

// ProcessValidationErrors flattens gin-binding validator errors into
// field:reason messages for the response body.
func ProcessValidationErrors(err error) []string {
	var messages []string
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s: failed on %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return messages
	}
	return []string{err.Error()}
}

/* slugs and identifiers */

// NormalizeSlug lowercases the name and joins its fields with hyphens.
// Accented characters stay as-is; only whitespace is rewritten.
func NormalizeSlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

// SlugWithFiscalYear appends the -FY<year> suffix used by programs, tests and
// findings so the same name can recur across fiscal years.
func SlugWithFiscalYear(name string, fiscalYear int) string {
	return fmt.Sprintf("%s-FY%d", NormalizeSlug(name), fiscalYear)
}

// ResolveIdentifier classifies a raw path identifier as a numeric primary key
// or a slug, so every lookup accepts either form.
func ResolveIdentifier(raw string) (field string, value interface{}) {
	if id, err := strconv.Atoi(raw); err == nil {
		return "id", id
	}
	return "slug", raw
}

/* fiscal years */

// GetFiscalYearRange returns the inclusive date range of fiscal year `year`
// for a company whose fiscal year starts at fiscalYearStartMonth.
func GetFiscalYearRange(fiscalYearStartMonth time.Month, year int) (time.Time, time.Time) {
	start := time.Date(year, fiscalYearStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// FiscalYearOf returns the fiscal year containing date t. The fiscal year is
// named after its starting calendar year.
func FiscalYearOf(fiscalYearStartMonth time.Month, t time.Time) int {
	if t.Month() < fiscalYearStartMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// FiscalYearForPeriod returns the fiscal year wholly containing [from,to].
// A period spanning two fiscal years is a validation error.
func FiscalYearForPeriod(fiscalYearStartMonth time.Month, from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, ErrValidation("period end must not precede period start")
	}
	year := FiscalYearOf(fiscalYearStartMonth, from)
	if FiscalYearOf(fiscalYearStartMonth, to) != year {
		return 0, ErrValidation("audited period must fall within a single fiscal year")
	}
	return year, nil
}

func GetCorrelationIdOrEmpty(ctx context.Context) string {
	if v, ok := GetCorrelationIdFromContext(ctx); ok {
		return v
	}
	return ""
}
