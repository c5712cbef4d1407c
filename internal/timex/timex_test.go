package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2020-03-17 was a Tuesday; relative-date expectations below are hand-counted
// from it.
var tuesday = time.Date(2020, time.March, 17, 10, 30, 0, 0, time.UTC)

func TestParse_AbsoluteForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Expression
	}{
		{"iso full", "2020-03-22", Expression{Year: 2020, Month: 3, Day: 22}},
		{"iso year-month", "2020-03", Expression{Year: 2020, Month: 3}},
		{"timex missing year", "XXXX-03-22", Expression{Month: 3, Day: 22}},
		{"slash full", "03/22/2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"slash no year", "03/22", Expression{Month: 3, Day: 22}},
		{"month name full", "March 22, 2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"month name no year", "March 22", Expression{Month: 3, Day: 22}},
		{"month name no day", "March 2020", Expression{Year: 2020, Month: 3}},
		{"bare month", "march", Expression{Month: 3}},
		{"day first", "22 March 2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"ordinal day", "March 22nd, 2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"abbreviated month", "mar 22 2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"leading on", "on March 22, 2020", Expression{Year: 2020, Month: 3, Day: 22}},
		{"extra whitespace", "  March   22,  2020 ", Expression{Year: 2020, Month: 3, Day: 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tuesday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_RelativeForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Expression
	}{
		{"today", "today", Expression{Year: 2020, Month: 3, Day: 17}},
		{"tomorrow", "tomorrow", Expression{Year: 2020, Month: 3, Day: 18}},
		{"weekday later this week", "friday", Expression{Year: 2020, Month: 3, Day: 20}},
		{"same weekday means next week", "tuesday", Expression{Year: 2020, Month: 3, Day: 24}},
		{"next weekday", "next monday", Expression{Year: 2020, Month: 3, Day: 23}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tuesday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Definite(), "relative dates resolve to one calendar day")
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	for _, text := range []string{"", "   ", "gibberish", "13/45", "soonish", "2020-13-01"} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text, tuesday)
			assert.Error(t, err)
		})
	}
}

func TestExpression_Definite(t *testing.T) {
	assert.True(t, Expression{Year: 2020, Month: 3, Day: 22}.Definite())
	assert.False(t, Expression{Year: 2020, Month: 3}.Definite(), "missing day is ambiguous")
	assert.False(t, Expression{Month: 3, Day: 22}.Definite(), "missing year is ambiguous")
	assert.False(t, Expression{}.Definite())
}

func TestExpression_String(t *testing.T) {
	assert.Equal(t, "2020-03-22", Expression{Year: 2020, Month: 3, Day: 22}.String())
	assert.Equal(t, "2020-03", Expression{Year: 2020, Month: 3}.String())
	assert.Equal(t, "XXXX-03-22", Expression{Month: 3, Day: 22}.String())
	assert.Equal(t, "2020", Expression{Year: 2020}.String())
	assert.Equal(t, "", Expression{}.String())
}

func TestExpression_String_RoundTrips(t *testing.T) {
	for _, e := range []Expression{
		{Year: 2020, Month: 3, Day: 22},
		{Year: 2020, Month: 3},
		{Month: 3, Day: 22},
	} {
		parsed, err := Parse(e.String(), tuesday)
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
}

func TestExpression_Natural(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{"today", Expression{Year: 2020, Month: 3, Day: 17}, "today"},
		{"tomorrow", Expression{Year: 2020, Month: 3, Day: 18}, "tomorrow"},
		{"within the week", Expression{Year: 2020, Month: 3, Day: 20}, "next Friday"},
		{"a week out", Expression{Year: 2020, Month: 3, Day: 24}, "next Tuesday"},
		{"same year", Expression{Year: 2020, Month: 4, Day: 30}, "April 30"},
		{"other year", Expression{Year: 2019, Month: 12, Day: 25}, "December 25, 2019"},
		{"indefinite falls back to canonical", Expression{Year: 2020, Month: 3}, "2020-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.Natural(tuesday))
		})
	}
}
