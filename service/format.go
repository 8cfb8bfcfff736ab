package service

import "strings"

// FormatCPF re-punctuates a raw CPF as XXX.XXX.XXX-XX. Input that does not
// reduce to exactly 11 digits is returned unchanged rather than corrupted.
func FormatCPF(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) != 11 {
		return raw
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// FormatDate reshapes a date string into DD/MM/YYYY. DD/MM/YYYY input passes
// through; YYYY-MM-DD (with or without a time suffix) is reordered; anything
// else is returned unchanged. Purely textual, no calendar validation.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	if isSlashDate(raw) {
		return raw
	}
	if isISODate(raw) {
		datePart := raw
		if i := strings.IndexByte(raw, 'T'); i >= 0 {
			datePart = raw[:i]
		}
		parts := strings.SplitN(datePart, "-", 3)
		return parts[2] + "/" + parts[1] + "/" + parts[0]
	}
	return raw
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isSlashDate reports whether s is exactly DD/MM/YYYY.
func isSlashDate(s string) bool {
	if len(s) != 10 || s[2] != '/' || s[5] != '/' {
		return false
	}
	for i, c := range []byte(s) {
		if i == 2 || i == 5 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isISODate reports whether s starts with YYYY-MM-DD.
func isISODate(s string) bool {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < 10; i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
