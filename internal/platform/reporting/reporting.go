// Package reporting holds the arithmetic shared by the report aggregators:
// guarded rates, money buckets and date periods.
package reporting

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Rate returns num/den, or 0 when den is 0.
func Rate(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent returns round(num/den*100) with the same zero guard as Rate.
func Percent(num, den float64) int {
	return int(math.Round(Rate(num, den) * 100))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a monetary amount to integer cents.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// BRL formats an amount as Brazilian reais, e.g. "R$ 1.234,50".
func BRL(amount float64) string {
	c := Cents(amount)
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	whole := fmt.Sprintf("%d", c/100)
	var b []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b = append(b, '.')
		}
		b = append(b, whole[i])
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b, c%100)
}

// Bucket is one group of a Totals breakdown.
type Bucket struct {
	Key    string  `json:"chave"`
	Count  int     `json:"quantidade"`
	Amount float64 `json:"valor"`
	Share  float64 `json:"percentual"`
	cents  int64
}

// Totals groups amounts by key. Amounts are summed in cents so that the sum
// of the buckets always equals Total.
type Totals struct {
	buckets map[string]*Bucket
	total   int64
	count   int
}

func NewTotals() *Totals {
	return &Totals{buckets: make(map[string]*Bucket)}
}

func (t *Totals) Add(key string, amount float64) {
	c := Cents(amount)
	b, ok := t.buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		t.buckets[key] = b
	}
	b.Count++
	b.cents += c
	t.total += c
	t.count++
}

// Total returns the sum of every added amount.
func (t *Totals) Total() float64 { return float64(t.total) / 100 }

// Count returns the number of added entries.
func (t *Totals) Count() int { return t.count }

// Buckets returns the groups ordered by amount (desc), then key.
func (t *Totals) Buckets() []Bucket {
	out := make([]Bucket, 0, len(t.buckets))
	for _, b := range t.buckets {
		bb := *b
		bb.Amount = float64(b.cents) / 100
		bb.Share = Round2(Rate(float64(b.cents), float64(t.total)) * 100)
		out = append(out, bb)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].cents != out[j].cents {
			return out[i].cents > out[j].cents
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Period is an inclusive date range.
type Period struct {
	From time.Time `json:"de"`
	To   time.Time `json:"ate"`
}

// ParsePeriod parses YYYY-MM-DD bounds. A missing from defaults to the first
// day of now's month and a missing to defaults to now's date.
func ParsePeriod(from, to string, now time.Time) (Period, error) {
	var p Period
	var err error
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if from == "" {
		p.From = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else if p.From, err = time.Parse(dateLayout, from); err != nil {
		return Period{}, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", from)
	}
	if to == "" {
		p.To = today
	} else if p.To, err = time.Parse(dateLayout, to); err != nil {
		return Period{}, fmt.Errorf("invalid to date %q: expected YYYY-MM-DD", to)
	}
	if p.To.Before(p.From) {
		return Period{}, fmt.Errorf("to date must not be before from date")
	}
	return p, nil
}

// End returns the exclusive upper bound, midnight after To.
func (p Period) End() time.Time { return p.To.AddDate(0, 0, 1) }

// WorkingDays counts Monday to Friday dates in the period.
func (p Period) WorkingDays() int {
	n := 0
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}
