// Package validate implements the naming rules shared by CreateSnapshot and
// schedule prefixes.
package validate

import "strings"

// SnapshotName reports whether n is a legal snapshot name: length in
// [1,255]; alphanumeric plus '-' and '_'; must not start with '-' or '.';
// must not equal "." or ".."; must not contain '/' or NUL; must not contain
// "..".
func SnapshotName(n string) bool {
	return validName(n, 255)
}

// SchedulePrefix reports whether p is a legal schedule prefix: the same
// rules as SnapshotName but with a length cap of 50.
func SchedulePrefix(p string) bool {
	return validName(p, 50)
}

func validName(n string, maxLen int) bool {
	if len(n) < 1 || len(n) > maxLen {
		return false
	}
	if n == "." || n == ".." {
		return false
	}
	if strings.Contains(n, "/") || strings.Contains(n, "\x00") {
		return false
	}
	if strings.Contains(n, "..") {
		return false
	}
	if n[0] == '-' || n[0] == '.' {
		return false
	}
	for _, r := range n {
		if !isAlnum(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// TimeOfDay reports whether s is a zero-padded "HH:MM" string, 00-23/00-59.
func TimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh, mm := s[0:2], s[3:5]
	if !isDigits(hh) || !isDigits(mm) {
		return false
	}
	h := int(hh[0]-'0')*10 + int(hh[1]-'0')
	m := int(mm[0]-'0')*10 + int(mm[1]-'0')
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DayOfWeek reports whether d is in [0,6], Sunday=0.
func DayOfWeek(d int) bool {
	return d >= 0 && d <= 6
}

// DayOfMonth reports whether d is in [1,31].
func DayOfMonth(d int) bool {
	return d >= 1 && d <= 31
}
