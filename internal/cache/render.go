package cache

import (
	"fmt"
	"strings"
)

// Render substitutes every occurrence of the literal token "{{name}}" in
// title, message and htmlContent with the string form of variables[name].
// Unknown tokens are left in place, and rendering never fails: on any
// internal error the original fields are returned unchanged.
func Render(title, message, htmlContent string, variables map[string]interface{}) (renderedTitle, renderedMessage, renderedHTML string) {
	defer func() {
		if r := recover(); r != nil {
			renderedTitle, renderedMessage, renderedHTML = title, message, htmlContent
		}
	}()

	return substitute(title, variables), substitute(message, variables), substitute(htmlContent, variables)
}

func substitute(s string, variables map[string]interface{}) string {
	if s == "" || len(variables) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] == '{' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.Index(s[i+2:], "}}")
			if end == -1 {
				b.WriteString(s[i:])
				break
			}
			name := s[i+2 : i+2+end]
			if v, ok := variables[name]; ok {
				b.WriteString(fmt.Sprintf("%v", v))
			} else {
				// unknown token: left in place
				b.WriteString(s[i : i+2+end+2])
			}
			i = i + 2 + end + 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String()
}
