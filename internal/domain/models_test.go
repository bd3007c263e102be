package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAthleteIdentity_IsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   bool
	}{
		{"", true},
		{"  ", true},
		{"active", true},
		{"ACTIVE", true},
		{"Aktif", true},
		{"AKTIF", true},
		{"AKTİF", true},
		{" aktif ", true},
		{"aktıf", false},
		{"pasif", false},
		{"inactive", false},
		{"aktif değil", false},
	}
	for _, tc := range tests {
		got := AthleteIdentity{ID: "a1", Status: tc.status}.IsActive()
		require.Equal(t, tc.want, got, "status %q", tc.status)
	}
}

func TestStoredPayment_Validate(t *testing.T) {
	t.Parallel()

	ok := StoredPayment{
		AthleteID: "a1",
		Amount:    decimal.RequireFromString("500"),
		Date:      time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ok.Validate())

	noDate := ok
	noDate.Date = time.Time{}
	err := noDate.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "date", verr.Field)

	noAthlete := ok
	noAthlete.AthleteID = " "
	require.ErrorIs(t, noAthlete.Validate(), ErrInvalidInput)

	negative := ok
	negative.Amount = decimal.RequireFromString("-1")
	require.ErrorIs(t, negative.Validate(), ErrInvalidInput)
}
