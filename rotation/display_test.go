package rotation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/rotation-engine/rotation"
)

func TestDisplayName(t *testing.T) {
	s := single("p-1", "Juan Pérez")
	assert.Equal(t, "Juan Pérez", rotation.DisplayName(&s))

	p := shared("p-2", "Goku", "Vegeta")
	assert.Equal(t, "Goku / Vegeta", rotation.DisplayName(&p))
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "$0"},
		{5, "$5"},
		{999, "$999"},
		{1000, "$1.000"},
		{10000, "$10.000"},
		{150000, "$150.000"},
		{1500000, "$1.500.000"},
		{1234567890, "$1.234.567.890"},
		{-1500, "-$1.500"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rotation.FormatAmount(tc.amount), "amount %d", tc.amount)
	}
}

func TestFormatDates(t *testing.T) {
	d := rotation.NewPlainDate(2024, time.January, 31)
	assert.Equal(t, "31 ene", rotation.FormatDateReadable(d))
	assert.Equal(t, "31 ene 2024", rotation.FormatDateFull(d))

	dic := rotation.NewPlainDate(2025, time.December, 15)
	assert.Equal(t, "15 dic", rotation.FormatDateReadable(dic))
	assert.Equal(t, "15 dic 2025", rotation.FormatDateFull(dic))

	assert.Equal(t, "", rotation.FormatDateReadable(rotation.PlainDate{}))
	assert.Equal(t, "", rotation.FormatDateFull(rotation.PlainDate{}))
}
