package helper

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "integer", in: "30", want: "30.00"},
		{name: "two decimals", in: "19.99", want: "19.99"},
		{name: "rounds half up", in: "10.005", want: "10.01"},
		{name: "rounds down", in: "10.004", want: "10.00"},
		{name: "whitespace", in: " 7.5 ", want: "7.50"},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDecimal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatAmount(got))
		})
	}
}

func TestDecimal128Arithmetic(t *testing.T) {
	thirty := MustParseAmount("30")
	seventy := MustParseAmount("70")
	hundred := MustParseAmount("100")

	sum, err := AddDecimal128(thirty, seventy)
	require.NoError(t, err)
	cmp, err := CompareDecimal128(sum, hundred)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	diff, err := SubDecimal128(hundred, MustParseAmount("80"))
	require.NoError(t, err)
	assert.Equal(t, "20.00", FormatAmount(diff))

	line, err := MulDecimal128(MustParseAmount("12.50"), 3)
	require.NoError(t, err)
	assert.Equal(t, "37.50", FormatAmount(line))
}

func TestDecimal128ToRat_ZeroValue(t *testing.T) {
	var d primitive.Decimal128
	r, err := Decimal128ToRat(d)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sign())
	assert.True(t, IsZero(d))
	assert.False(t, IsPositive(d))
}

func TestDecimal128ToRat_Exponents(t *testing.T) {
	d, err := primitive.ParseDecimal128("1.5E+3")
	require.NoError(t, err)
	r, err := Decimal128ToRat(d)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Cmp(big.NewRat(1500, 1)))
}

func TestMinorUnits(t *testing.T) {
	units, err := Decimal128ToMinorUnits(MustParseAmount("42.37"))
	require.NoError(t, err)
	assert.Equal(t, int64(4237), units)
	assert.Equal(t, "42.37", FormatAmount(MinorUnitsToDecimal128(units)))
}

func TestRatToMinorUnits_Negative(t *testing.T) {
	assert.Equal(t, int64(-101), RatToMinorUnits(big.NewRat(-1005, 1000)).Int64())
}
