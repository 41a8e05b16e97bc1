package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidDecimal = errors.New("invalid decimal value")
	ten               = big.NewInt(10)
	hundred           = big.NewRat(100, 1)
)

// ZeroDecimal128 returns 0.00.
func ZeroDecimal128() primitive.Decimal128 {
	d, _ := primitive.ParseDecimal128FromBigInt(big.NewInt(0), -2)
	return d
}

// Decimal128ToRat converts a Decimal128 into an exact rational.
// The zero value of Decimal128 converts to 0.
func Decimal128ToRat(d primitive.Decimal128) (*big.Rat, error) {
	if d.IsNaN() || d.IsInf() != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecimal, d.String())
	}
	coef, exp, err := d.BigInt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecimal, err)
	}
	r := new(big.Rat).SetInt(coef)
	if exp == 0 {
		return r, nil
	}
	scale := new(big.Int).Exp(ten, big.NewInt(int64(absInt(exp))), nil)
	if exp > 0 {
		return r.Mul(r, new(big.Rat).SetInt(scale)), nil
	}
	return r.Quo(r, new(big.Rat).SetInt(scale)), nil
}

// RatToDecimal128 rounds r half away from zero to two decimal places.
func RatToDecimal128(r *big.Rat) (primitive.Decimal128, error) {
	d, ok := primitive.ParseDecimal128FromBigInt(RatToMinorUnits(r), -2)
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("%w: %s out of range", ErrInvalidDecimal, r.FloatString(2))
	}
	return d, nil
}

// RatToMinorUnits returns r in hundredths, rounded half away from zero.
func RatToMinorUnits(r *big.Rat) *big.Int {
	scaled := new(big.Rat).Mul(r, hundred)
	num := scaled.Num()
	den := scaled.Denom()
	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	twice := new(big.Int).Mul(new(big.Int).Abs(m), big.NewInt(2))
	if twice.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

// ParseAmount parses a decimal string and rounds it to two decimal places.
func ParseAmount(s string) (primitive.Decimal128, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.Decimal128{}, fmt.Errorf("%w: empty", ErrInvalidDecimal)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return RatToDecimal128(r)
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) primitive.Decimal128 {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// CompareDecimal128 returns -1, 0 or 1 as d1 is less than, equal to or greater than d2.
func CompareDecimal128(d1, d2 primitive.Decimal128) (int, error) {
	r1, err := Decimal128ToRat(d1)
	if err != nil {
		return 0, fmt.Errorf("failed to convert d1: %w", err)
	}
	r2, err := Decimal128ToRat(d2)
	if err != nil {
		return 0, fmt.Errorf("failed to convert d2: %w", err)
	}
	return r1.Cmp(r2), nil
}

// AddDecimal128 returns the sum of all values rounded to two decimal places.
func AddDecimal128(values ...primitive.Decimal128) (primitive.Decimal128, error) {
	sum := new(big.Rat)
	for i, v := range values {
		r, err := Decimal128ToRat(v)
		if err != nil {
			return primitive.Decimal128{}, fmt.Errorf("failed to convert value %d: %w", i, err)
		}
		sum.Add(sum, r)
	}
	return RatToDecimal128(sum)
}

// SubDecimal128 returns d1 - d2.
func SubDecimal128(d1, d2 primitive.Decimal128) (primitive.Decimal128, error) {
	r1, err := Decimal128ToRat(d1)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert d1: %w", err)
	}
	r2, err := Decimal128ToRat(d2)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert d2: %w", err)
	}
	return RatToDecimal128(new(big.Rat).Sub(r1, r2))
}

// MulDecimal128 returns d multiplied by an integer quantity.
func MulDecimal128(d primitive.Decimal128, qty uint32) (primitive.Decimal128, error) {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return primitive.Decimal128{}, err
	}
	return RatToDecimal128(r.Mul(r, new(big.Rat).SetInt64(int64(qty))))
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d primitive.Decimal128) bool {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return false
	}
	return r.Sign() > 0
}

// IsZero reports whether d is zero. The zero value of Decimal128 is zero.
func IsZero(d primitive.Decimal128) bool {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return false
	}
	return r.Sign() == 0
}

// Decimal128ToMinorUnits converts d to hundredths, e.g. cents for two-decimal currencies.
func Decimal128ToMinorUnits(d primitive.Decimal128) (int64, error) {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return 0, err
	}
	i := RatToMinorUnits(r)
	if !i.IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of int64 range", ErrInvalidDecimal, i.String())
	}
	return i.Int64(), nil
}

// MinorUnitsToDecimal128 converts hundredths back into a two-decimal value.
func MinorUnitsToDecimal128(units int64) primitive.Decimal128 {
	d, _ := primitive.ParseDecimal128FromBigInt(big.NewInt(units), -2)
	return d
}

// FormatAmount renders d with exactly two decimals.
func FormatAmount(d primitive.Decimal128) string {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return d.String()
	}
	return r.FloatString(2)
}

// AmountJSONNumber renders d as a JSON number with two decimals.
func AmountJSONNumber(d primitive.Decimal128) json.Number {
	return json.Number(FormatAmount(d))
}

// Decimal128ToFloat64 converts d for presentation only. Never use the result for arithmetic.
func Decimal128ToFloat64(d primitive.Decimal128) float64 {
	r, err := Decimal128ToRat(d)
	if err != nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
