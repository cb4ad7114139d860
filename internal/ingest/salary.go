package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
)

const (
	fieldSalaryMin   = "salaryMin"
	fieldSalaryMax   = "salaryMax"
	fieldSalaryRange = "salaryRange"
)

// NormalizeSalary converts a raw salary into a non-negative integer.
// An absent value yields nil.
func NormalizeSalary(field string, v domain.Flex) (*int64, *FieldError) {
	if !v.Present() {
		return nil, nil
	}

	kind := KindSalaryMin
	if field == fieldSalaryMax {
		kind = KindSalaryMax
	}

	n, numeric := v.Number()
	if !numeric {
		cleaned := cleanSalary(v.String())
		if !plainNumber.MatchString(cleaned) {
			return nil, notANumber(field, kind, v)
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, notANumber(field, kind, v)
		}
		n = parsed
	}

	if n >= math.MaxInt64 || n < math.MinInt64 {
		return nil, &FieldError{
			Field:   field,
			Kind:    kind,
			Message: fmt.Sprintf("Invalid %s value: %q is out of range", field, v.String()),
		}
	}

	value := int64(n)
	if value < 0 {
		return nil, &FieldError{
			Field:   field,
			Kind:    kind,
			Message: fmt.Sprintf("%s cannot be negative: %d", field, value),
		}
	}
	return &value, nil
}

// NormalizeSalaryRange normalizes both bounds, reporting both when both are invalid,
// and then checks that min does not exceed max
func NormalizeSalaryRange(minRaw, maxRaw domain.Flex) (*int64, *int64, error) {
	minVal, minErr := NormalizeSalary(fieldSalaryMin, minRaw)
	maxVal, maxErr := NormalizeSalary(fieldSalaryMax, maxRaw)

	if minErr != nil || maxErr != nil {
		verr := &ValidationError{}
		for _, fe := range []*FieldError{minErr, maxErr} {
			if fe != nil {
				verr.Errors = append(verr.Errors, *fe)
			}
		}
		return nil, nil, verr
	}

	if minVal != nil && maxVal != nil && *minVal > *maxVal {
		return nil, nil, invalid(fieldSalaryRange, KindSalaryRange,
			"Invalid salary range: salaryMin (%d) cannot be greater than salaryMax (%d)", *minVal, *maxVal)
	}

	return minVal, maxVal, nil
}

func notANumber(field string, kind Kind, v domain.Flex) *FieldError {
	return &FieldError{
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf("Invalid %s value: %q is not a number", field, v.String()),
	}
}

// plainNumber is what must remain once currency markers and separators are gone
var plainNumber = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// currencyWords are stripped only as a leading or trailing token, longest first
var currencyWords = []string{"rs.", "rs", "inr", "usd", "eur", "gbp"}

// cleanSalary drops currency symbols, separators, whitespace and a currency word at either end
func cleanSalary(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == ',' || r == '_' {
			return -1
		}
		return r
	}, raw)

	for _, w := range currencyWords {
		if len(s) > len(w) && strings.EqualFold(s[:len(w)], w) {
			s = s[len(w):]
			break
		}
	}
	for _, w := range currencyWords {
		if len(s) > len(w) && strings.EqualFold(s[len(s)-len(w):], w) {
			s = s[:len(s)-len(w)]
			break
		}
	}
	return s
}
