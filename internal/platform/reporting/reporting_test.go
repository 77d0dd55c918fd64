package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.25, Rate(1, 4))
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestTotals_SubtotalsSumToTotal(t *testing.T) {
	tot := NewTotals()
	amounts := []struct {
		key    string
		amount float64
	}{
		{"pix", 0.1}, {"pix", 0.2}, {"cartao", 150.35}, {"dinheiro", 80},
		{"cartao", 0.07}, {"boleto", 1234.56}, {"pix", 19.99},
	}
	for _, a := range amounts {
		tot.Add(a.key, a.amount)
	}

	var sumCents int64
	for _, b := range tot.Buckets() {
		sumCents += Cents(b.Amount)
	}
	assert.Equal(t, Cents(tot.Total()), sumCents)
	assert.Equal(t, 7, tot.Count())
	assert.Equal(t, 1485.27, tot.Total())
}

func TestTotals_BucketOrder(t *testing.T) {
	tot := NewTotals()
	tot.Add("b", 10)
	tot.Add("a", 10)
	tot.Add("c", 30)

	buckets := tot.Buckets()
	require.Len(t, buckets, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{buckets[0].Key, buckets[1].Key, buckets[2].Key})
	assert.Equal(t, 60.0, buckets[0].Share)
}

func TestTotals_Empty(t *testing.T) {
	tot := NewTotals()
	assert.Equal(t, 0.0, tot.Total())
	assert.Empty(t, tot.Buckets())
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	p, err := ParsePeriod("", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", p.From.Format(dateLayout))
	assert.Equal(t, "2024-03-15", p.To.Format(dateLayout))
	assert.Equal(t, "2024-03-16", p.End().Format(dateLayout))

	_, err = ParsePeriod("15/03/2024", "", now)
	assert.Error(t, err)

	_, err = ParsePeriod("2024-03-10", "2024-03-01", now)
	assert.Error(t, err)
}

func TestPeriod_WorkingDays(t *testing.T) {
	// 2024-03-04 is a Monday.
	p, err := ParsePeriod("2024-03-04", "2024-03-17", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10, p.WorkingDays())

	weekend, err := ParsePeriod("2024-03-09", "2024-03-10", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, weekend.WorkingDays())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf,
		Sheet{
			Name:    "Resumo",
			Headers: []string{"Forma", "Valor"},
			Rows:    [][]interface{}{{"pix", 10.5}, {"cartao", 20}},
			Widths:  []float64{20, 15},
		},
		Sheet{Name: "Profissionais", Headers: []string{"Profissional"}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumo", "Profissionais"}, f.GetSheetList())
	v, err := f.GetCellValue("Resumo", "A3")
	require.NoError(t, err)
	assert.Equal(t, "cartao", v)
	v, err = f.GetCellValue("Resumo", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10.5", v)
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	assert.Error(t, WriteXLSX(&bytes.Buffer{}))
}

func TestBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{12.5, "R$ 12,50"},
		{1234.56, "R$ 1.234,56"},
		{1000000, "R$ 1.000.000,00"},
		{-80.1, "-R$ 80,10"},
	}
	for _, tt := range tests {
		if got := BRL(tt.in); got != tt.want {
			t.Errorf("BRL(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
