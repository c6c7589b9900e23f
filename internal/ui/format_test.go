package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC)

func TestFormatDateAbsolute(t *testing.T) {
	require.Equal(t, "06-02-2026", formatDate("20260206T120000Z", false, testNow))
}

func TestFormatDateEmptyAndDash(t *testing.T) {
	require.Equal(t, "-", formatDate("", false, testNow))
	require.Equal(t, "-", formatDate("-", false, testNow))
	require.Equal(t, "-", formatDate("", true, testNow))
	require.Equal(t, "-", formatDate("-", true, testNow))
}

func TestFormatDateUnparseableRendersVerbatim(t *testing.T) {
	require.Equal(t, "not-a-date", formatDate("not-a-date", false, testNow))
	require.Equal(t, "not-a-date", formatDate("not-a-date", true, testNow))
}

func TestFormatRelativeBuckets(t *testing.T) {
	at := func(days int) string {
		return formatDate(testNow.AddDate(0, 0, days).Format(taskDateLayout), true, testNow)
	}

	require.Equal(t, "today", at(0))
	require.Equal(t, "tomorrow", at(1))
	require.Equal(t, "yesterday", at(-1))
	require.Equal(t, "in 3 days", at(3))
	require.Equal(t, "5 days ago", at(-5))
	require.Equal(t, "in 2 weeks", at(14))
	require.Equal(t, "in 2 months", at(60))
	require.Equal(t, "3 months ago", at(-90))
	require.Equal(t, "in 1 year", at(400))
}
