package domain

import (
	"fmt"
	"strings"
)

// ParseAmountMinor разбирает десятичную денежную строку источника
// ("96.90", "1234", "5000.5") в минимальные единицы без плавающей точки,
// чтобы суммы по клиентам складывались точно. Больше двух знаков после
// точки источник не присылает.
func ParseAmountMinor(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	var minor int64
	for _, part := range []string{intPart, fracPart} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
			}
			minor = minor*10 + int64(r-'0')
		}
	}
	if neg {
		minor = -minor
	}

	return minor, nil
}

// FormatAmountMinor печатает минимальные единицы обратно в десятичную строку.
func FormatAmountMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
