package db

import (
	"fmt"
	"strings"
)

// TagEscape escapes a value for use inside an FT TAG filter clause.
func TagEscape(value string) string {
	return tagEscaper.Replace(value)
}

// TagFilter builds an FT TAG filter clause, e.g. "@owner_id:{alice}".
func TagFilter(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, TagEscape(value))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
