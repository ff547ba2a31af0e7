package validation

import "unicode/utf8"

// PasswordStrength scores pw from 0 to 4: one point each for length >= 8,
// an uppercase letter, a digit and a character outside [A-Za-z0-9]. The
// score is a hint only and never blocks submission.
func PasswordStrength(pw string) int {
	var upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
		default:
			symbol = true
		}
	}
	score := 0
	if utf8.RuneCountInString(pw) >= MinPasswordLength {
		score++
	}
	for _, ok := range []bool{upper, digit, symbol} {
		if ok {
			score++
		}
	}
	return score
}

// StrengthLabel names a PasswordStrength score for display.
func StrengthLabel(score int) string {
	switch {
	case score <= 1:
		return "weak"
	case score == 2:
		return "fair"
	case score == 3:
		return "good"
	default:
		return "strong"
	}
}
