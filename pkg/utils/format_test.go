package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "0.00"},
		{999.5, "999.50"},
		{1000, "1,000.00"},
		{12345.678, "12,345.68"},
		{1234567.89, "1,234,567.89"},
		{-1500.25, "-1,500.25"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMoney(tc.amount))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+1.50%", FormatPercent(1.5))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "-3.75%", FormatPercent(-3.75))
}

func TestFormatPnL(t *testing.T) {
	assert.Equal(t, "+1,125.30", FormatPnL(1125.30))
	assert.Equal(t, "-450.00", FormatPnL(-450))
	assert.Equal(t, "0.00", FormatPnL(0))
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{3 * time.Hour, "3h0m"},
		{25*time.Hour + 30*time.Minute, "1d1h"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.d))
	}
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "2.50", FormatRatio(2.5))
	assert.Equal(t, "0.00", FormatRatio(0))
	assert.Equal(t, "inf", FormatRatio(999))
	assert.Equal(t, "inf", FormatRatio(1500))
}
