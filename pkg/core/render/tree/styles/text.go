package styles

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Base label sizes in px.
const (
	NameFontSize       = 14
	TitleFontSize      = 11
	DepartmentFontSize = 9

	minNameFontSize       = 9
	minTitleFontSize      = 8
	minDepartmentFontSize = 7
)

// NoDepartment is shown for employees without a department.
const NoDepartment = "Not specified"

// FontSize shrinks base for long text: full size up to 70% of maxLen, 90%
// up to maxLen, 75% beyond, never below minSize.
func FontSize(text string, base float64, maxLen int, minSize float64) float64 {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0 || float64(n) <= float64(maxLen)*0.7:
		return base
	case n <= maxLen:
		return max(base*0.9, minSize)
	default:
		return max(base*0.75, minSize)
	}
}

// NameSize returns the name label size. Avatars leave less room.
func NameSize(name string, avatars bool) float64 {
	return FontSize(name, NameFontSize, pick(avatars, 25, 30), minNameFontSize)
}

// TitleSize returns the job title label size.
func TitleSize(title string, avatars bool) float64 {
	return FontSize(title, TitleFontSize, pick(avatars, 25, 30), minTitleFontSize)
}

// DepartmentSize returns the department label size.
func DepartmentSize(dept string, avatars bool) float64 {
	return FontSize(dept, DepartmentFontSize, pick(avatars, 25, 35), minDepartmentFontSize)
}

// TrimTitle cuts long titles to 45 runes (50 without avatars) and appends
// an ellipsis.
func TrimTitle(title string, avatars bool) string {
	limit := pick(avatars, 45, 50)
	if utf8.RuneCountInString(title) <= limit {
		return title
	}
	return string([]rune(title)[:limit]) + "..."
}

// WrapTitle splits title into at most maxLines lines of roughly maxChars
// runes, breaking on spaces. The last line takes whatever remains.
func WrapTitle(title string, maxChars, maxLines int) []string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := ""
	for _, w := range words {
		next := w
		if line != "" {
			next = line + " " + w
		}
		if utf8.RuneCountInString(next) > maxChars && line != "" && len(lines) < maxLines-1 {
			lines = append(lines, line)
			line = w
			continue
		}
		line = next
	}
	return append(lines, line)
}

// Department returns dept, or [NoDepartment] when it is blank.
func Department(dept string) string {
	if strings.TrimSpace(dept) == "" {
		return NoDepartment
	}
	return dept
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// CountLabel renders a direct report count for the badge.
func CountLabel(n int) string {
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}

// EscapeXML escapes s for use in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func pick(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
