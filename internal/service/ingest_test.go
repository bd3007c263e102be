package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/aidat/internal/domain"
)

func TestParseStatementCSV(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Tarih,Açıklama,Tutar,Referans",
		"2024-12-01,Ahmet Yılmaz Aralık Aidat,500",
		`02.12.2024,"KAYA, FATMA HAVALE","1.234,56",REF-77`,
		"03/12/2024,EFT MARKET,120.50 TL",
		"not-a-date,Broken,10",
		"2024-12-04,Missing amount,abc",
		"2024-12-05,Too short",
	}, "\n")

	svc := &IngestService{}
	res, err := svc.ParseStatementCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Errors, 3)
	require.Len(t, res.Rows, 3)

	assert.Equal(t, "Ahmet Yılmaz Aralık Aidat", res.Rows[0].Description)
	assert.True(t, res.Rows[0].Amount.Equal(amount("500")))
	assert.Equal(t, "2024-12-01", res.Rows[0].Date.Format(domain.DateLayout))

	assert.Equal(t, "KAYA, FATMA HAVALE", res.Rows[1].Description)
	assert.True(t, res.Rows[1].Amount.Equal(amount("1234.56")))
	assert.Equal(t, "2024-12-02", res.Rows[1].Date.Format(domain.DateLayout))
	assert.Equal(t, "REF-77", res.Rows[1].Reference)

	assert.True(t, res.Rows[2].Amount.Equal(amount("120.5")))
	assert.Equal(t, "2024-12-03", res.Rows[2].Date.Format(domain.DateLayout))
}

func TestParseStatementCSV_CalendarDatesStayUTC(t *testing.T) {
	t.Parallel()

	svc := &IngestService{}
	res, err := svc.ParseStatementCSV(strings.NewReader("2024-12-01,Ahmet Yilmaz,500\n01.12.2024,Ahmet Yilmaz,500\n"))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 2)
	for _, row := range res.Rows {
		require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), row.Date)
	}

	payments := ToPayments([]domain.MatchResult{{Row: res.Rows[0], AthleteID: "a1"}}, "havale")
	existing := payment("p1", "a1", "500", "2024-12-01")
	existing.Description = "Ahmet Yilmaz"
	check := checkPaymentDuplicate(payments[0], []domain.StoredPayment{existing}, DefaultAmountTolerance)
	require.True(t, check.IsDuplicate)
}

func TestParseStatementCSV_ByteOrderMark(t *testing.T) {
	t.Parallel()

	svc := &IngestService{}
	res, err := svc.ParseStatementCSV(strings.NewReader("\ufeffTarih,Açıklama,Tutar\n2024-12-01,Aidat,500\n"))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "Aidat", res.Rows[0].Description)

	res, err = svc.ParseStatementCSV(strings.NewReader("\ufeff2024-12-01,Aidat,500\n"))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "2024-12-01", res.Rows[0].Date.Format(domain.DateLayout))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"500", "500"},
		{"1.234,56", "1234.56"},
		{"1234,5", "1234.5"},
		{"1234.56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567", "1234567"},
		{" 750,00 TL", "750"},
		{"99 ₺", "99"},
		{"-20", "-20"},
	}
	for _, tc := range tests {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		require.True(t, got.Equal(amount(tc.want)), "%s: got %s", tc.in, got)
	}

	for _, bad := range []string{"", "TL", "abc", "1,2,3"} {
		_, err := ParseAmount(bad)
		require.Error(t, err, bad)
	}
}

func TestParseRosterCSV(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"id,student_name,student_surname,parent_name,parent_surname,status",
		"a1,Ahmet,Yılmaz,Hasan,Yılmaz,aktif",
		"a2, Zeynep ,Demir,,,",
		"a3,Ali,Kaya,Fatma,Kaya,pasif",
		"a1,Dup,Row,,,",
		",No,Id,,,",
		"a4,Short",
	}, "\n")

	svc := &IngestService{}
	res, err := svc.ParseRosterCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Athletes, 3)
	require.Len(t, res.Errors, 3)
	require.ErrorIs(t, res.Errors[0], domain.ErrDuplicate)
	require.ErrorIs(t, res.Errors[1], domain.ErrInvalidInput)

	assert.Equal(t, "Ahmet Yılmaz", res.Athletes[0].StudentFullName())
	assert.Equal(t, "Hasan Yılmaz", res.Athletes[0].ParentFullName())
	assert.Equal(t, "Zeynep Demir", res.Athletes[1].StudentFullName())
	assert.True(t, res.Athletes[1].IsActive())
	assert.False(t, res.Athletes[2].IsActive())
}

func TestToPayments(t *testing.T) {
	t.Parallel()

	row := domain.TransactionRow{Description: "Ahmet Yılmaz", Amount: amount("500"), Date: day("2024-12-01"), Reference: "R1"}
	results := []domain.MatchResult{
		{Row: row, AthleteID: "a1", Similarity: 95, Provenance: domain.ProvenanceComputed},
		{Row: domain.TransactionRow{Description: "EFT"}},
	}

	got := ToPayments(results, "Havale")
	require.Len(t, got, 1)
	require.Equal(t, domain.StoredPayment{
		AthleteID:   "a1",
		Amount:      row.Amount,
		Date:        row.Date,
		Method:      "Havale",
		Description: "Ahmet Yılmaz",
		Reference:   "R1",
	}, got[0])
}
