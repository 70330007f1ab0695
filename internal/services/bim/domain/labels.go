package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type labelStyle int

const (
	labelInvalid labelStyle = iota
	labelNumeric
	labelAlpha
	labelSuffixed
)

func classifyLabel(label string) labelStyle {
	if label == "" {
		return labelInvalid
	}
	allDigits, allLetters := true, true
	for _, r := range label {
		if !unicode.IsDigit(r) {
			allDigits = false
		}
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			allLetters = false
		}
	}
	switch {
	case allDigits:
		return labelNumeric
	case allLetters:
		return labelAlpha
	}
	if last := label[len(label)-1]; last >= '0' && last <= '9' {
		return labelSuffixed
	}
	return labelInvalid
}

func validateStartLabel(field, label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if classifyLabel(label) == labelInvalid {
		return fmt.Errorf("%s %q must be numeric, alphabetic or end in a number", field, label)
	}
	return nil
}

// nextLabel returns the label after label: 1, 2, ... 9, 10; A, B, ... Z,
// AA, AB; G1, G2. Numeric padding is kept while it fits.
func nextLabel(label string) string {
	switch classifyLabel(label) {
	case labelNumeric:
		return incrementDigits(label)
	case labelAlpha:
		return incrementLetters(label)
	case labelSuffixed:
		i := len(label)
		for i > 0 && label[i-1] >= '0' && label[i-1] <= '9' {
			i--
		}
		return label[:i] + incrementDigits(label[i:])
	default:
		return label + "'"
	}
}

func incrementDigits(digits string) string {
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return digits + "1"
	}
	next := strconv.FormatUint(n+1, 10)
	if pad := len(digits) - len(next); pad > 0 {
		next = strings.Repeat("0", pad) + next
	}
	return next
}

func incrementLetters(letters string) string {
	runes := []rune(letters)
	upper := unicode.IsUpper(runes[len(runes)-1])
	first := 'a'
	if upper {
		first = 'A'
	}
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.ToLower(runes[i]) != 'z' {
			runes[i]++
			return string(runes)
		}
		runes[i] = first
	}
	return string(first) + string(runes)
}

// labelSequence returns count labels starting at start.
func labelSequence(start string, count int) []string {
	labels := make([]string, 0, count)
	label := start
	for i := 0; i < count; i++ {
		labels = append(labels, label)
		label = nextLabel(label)
	}
	return labels
}
