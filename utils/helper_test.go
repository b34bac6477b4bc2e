package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlugKeepsAccents(t *testing.T) {
	assert.Equal(t, "auditoría-de-ti", NormalizeSlug("  Auditoría de TI "))
	assert.Equal(t, "revisión-de-nómina", NormalizeSlug("Revisión   de Nómina"))
	assert.Equal(t, "", NormalizeSlug("   "))
}

func TestSlugWithFiscalYear(t *testing.T) {
	assert.Equal(t, "auditoría-de-ti-FY2025", SlugWithFiscalYear("Auditoría de TI", 2025))
}

func TestResolveIdentifier(t *testing.T) {
	field, value := ResolveIdentifier("42")
	assert.Equal(t, "id", field)
	assert.Equal(t, 42, value)

	field, value = ResolveIdentifier("auditoría-de-ti-FY2025")
	assert.Equal(t, "slug", field)
	assert.Equal(t, "auditoría-de-ti-FY2025", value)
}

func TestDiffIdSets(t *testing.T) {
	toAdd, toRemove := DiffIdSets([]int{1, 2, 3}, []int{2, 3, 4})
	assert.Equal(t, []int{4}, toAdd)
	assert.Equal(t, []int{1}, toRemove)

	toAdd, toRemove = DiffIdSets(nil, []int{1})
	assert.Equal(t, []int{1}, toAdd)
	assert.Empty(t, toRemove)

	toAdd, toRemove = DiffIdSets([]int{1}, nil)
	assert.Empty(t, toAdd)
	assert.Equal(t, []int{1}, toRemove)
}

func TestFiscalYearOf(t *testing.T) {
	// calendar-year company
	assert.Equal(t, 2025, FiscalYearOf(time.January, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

	// April-start company: March 2025 still belongs to FY2024
	assert.Equal(t, 2024, FiscalYearOf(time.April, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, FiscalYearOf(time.April, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFiscalYearForPeriod(t *testing.T) {
	year, err := FiscalYearForPeriod(time.January,
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2025, year)

	// spans two fiscal years
	_, err = FiscalYearForPeriod(time.January,
		time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)

	// inverted range
	_, err = FiscalYearForPeriod(time.January,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestGetFiscalYearRange(t *testing.T) {
	start, end := GetFiscalYearRange(time.April, 2025)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 2026, end.Year())
	assert.Equal(t, time.March, end.Month())
	assert.Equal(t, 31, end.Day())
}

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
}

func TestAreIntSlicesEqual(t *testing.T) {
	assert.True(t, AreIntSlicesEqual(nil, nil))
	assert.True(t, AreIntSlicesEqual([]int{1, 2, 3}, []int{3, 2, 1}))
	assert.False(t, AreIntSlicesEqual([]int{1, 2}, []int{1, 2, 3}))
	assert.False(t, AreIntSlicesEqual([]int{1, 1, 2}, []int{1, 2, 2}))
}
