package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	amountRegexp    = regexp.MustCompile(`^\d+(\.\d+)?$`)
	thousandsRegexp = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
)

const maxAmountDecimals = 2

// ValidAmount is an amount that passed AmountSelector validation.
type ValidAmount struct {
	Value      decimal.Decimal
	FromPreset bool
}

// AmountError reports why an amount was refused. Kind is one of
// ErrEmptyAmount, ErrNotANumber, ErrTooManyDecimals, ErrBelowMinimum.
type AmountError struct {
	Kind    error
	Input   string
	Minimum decimal.Decimal
}

func (e *AmountError) Error() string {
	if e.Kind == ErrBelowMinimum {
		return fmt.Sprintf("minimum amount is %s", e.Minimum.StringFixed(0))
	}
	return e.Kind.Error()
}

func (e *AmountError) Unwrap() error { return e.Kind }

// ValidateAmount checks a typed or preset amount against a minimum. Presets
// are suggestions; free input is accepted as well. There is no upper bound,
// the backend decides on balance.
func ValidateAmount(input string, minimum decimal.Decimal, presets []decimal.Decimal) (ValidAmount, error) {
	cleaned := normalizeAmount(input)
	if cleaned == "" {
		return ValidAmount{}, &AmountError{Kind: ErrEmptyAmount, Input: input, Minimum: minimum}
	}

	if !amountRegexp.MatchString(cleaned) {
		return ValidAmount{}, &AmountError{Kind: ErrNotANumber, Input: input, Minimum: minimum}
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return ValidAmount{}, &AmountError{Kind: ErrNotANumber, Input: input, Minimum: minimum}
	}
	if -amount.Exponent() > maxAmountDecimals {
		return ValidAmount{}, &AmountError{Kind: ErrTooManyDecimals, Input: input, Minimum: minimum}
	}

	if amount.LessThan(minimum) {
		return ValidAmount{}, &AmountError{Kind: ErrBelowMinimum, Input: input, Minimum: minimum}
	}

	if !amount.IsPositive() {
		return ValidAmount{}, &AmountError{Kind: ErrNotANumber, Input: input, Minimum: minimum}
	}

	return ValidAmount{Value: amount, FromPreset: isPreset(amount, presets)}, nil
}

// normalizeAmount drops spaces and reads commas either as thousands
// separators ("10,000.50") or as a decimal comma ("10 000,5").
func normalizeAmount(input string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(input), " ", "")
	if thousandsRegexp.MatchString(cleaned) {
		return strings.ReplaceAll(cleaned, ",", "")
	}
	return strings.ReplaceAll(cleaned, ",", ".")
}

func isPreset(amount decimal.Decimal, presets []decimal.Decimal) bool {
	for _, p := range presets {
		if p.Equal(amount) {
			return true
		}
	}
	return false
}
