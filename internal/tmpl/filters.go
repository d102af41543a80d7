package tmpl

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	tagRe     = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)\b[^>]*>`)
	tagNameRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9-]*`)
)

var builtinFilters = map[string]Filter{
	"lower":        func(v string, _ ...string) string { return strings.ToLower(v) },
	"upper":        func(v string, _ ...string) string { return strings.ToUpper(v) },
	"trim":         func(v string, _ ...string) string { return strings.TrimSpace(v) },
	"capitalize":   capitalize,
	"striptags":    stripTags,
	"blockquote":   blockquote,
	"replace":      replace,
	"default":      defaultValue,
	"numberLength": numberLength,
}

// capitalize upper-cases the first letter and leaves the rest alone.
func capitalize(v string, _ ...string) string {
	r, size := utf8.DecodeRuneInString(v)
	if size == 0 {
		return v
	}
	return string(unicode.ToUpper(r)) + v[size:]
}

// stripTags removes HTML tags. Arguments name tags to keep, either as bare
// names ("p", "a") or in the "<p><a>" form.
func stripTags(v string, allowed ...string) string {
	keep := make(map[string]bool)
	for _, a := range allowed {
		for _, name := range tagNameRe.FindAllString(a, -1) {
			keep[strings.ToLower(name)] = true
		}
	}
	return tagRe.ReplaceAllStringFunc(v, func(tag string) string {
		m := tagRe.FindStringSubmatch(tag)
		if keep[strings.ToLower(m[1])] {
			return tag
		}
		return ""
	})
}

// blockquote prefixes every line with "> ".
func blockquote(v string, _ ...string) string {
	if v == "" {
		return v
	}
	lines := strings.Split(v, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

func replace(v string, args ...string) string {
	if len(args) < 2 || args[0] == "" {
		return v
	}
	return strings.ReplaceAll(v, args[0], args[1])
}

func defaultValue(v string, args ...string) string {
	if v == "" && len(args) > 0 {
		return args[0]
	}
	return v
}

// numberLength left-pads an integer value with zeros to the given width.
func numberLength(v string, args ...string) string {
	if len(args) == 0 {
		return v
	}
	width, err := strconv.Atoi(args[0])
	if err != nil {
		return v
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return v
	}
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.Itoa(n)
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	return sign + digits
}
