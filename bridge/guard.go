package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[A-Za-z_]+`)

// 出现任何一个都不是纯读语句；INTO 挡住 SELECT ... INTO 和 REPLACE INTO
var deniedWords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true, "ALTER": true,
	"CREATE": true, "TRUNCATE": true, "ATTACH": true, "DETACH": true, "PRAGMA": true,
	"VACUUM": true, "REINDEX": true, "GRANT": true, "REVOKE": true, "MERGE": true,
	"UPSERT": true, "COPY": true, "CALL": true, "EXEC": true, "EXECUTE": true,
	"INTO": true, "LOAD_EXTENSION": true, "SET": true, "LOCK": true,
}

// CheckReadOnly accepts exactly one SELECT (or WITH ... SELECT) statement.
// Comments and quoted text are blanked out first so keywords hidden in them
// neither trigger nor evade the check.
func CheckReadOnly(stmt string) error {
	code := strings.TrimSpace(stripQuotedAndComments(stmt))
	code = strings.TrimSpace(strings.TrimRight(code, "; \t\r\n"))
	if code == "" {
		return fmt.Errorf("%w: empty statement", ErrUnsafeStatement)
	}
	if strings.Contains(code, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeStatement)
	}

	words := wordRe.FindAllString(code, -1)
	if len(words) == 0 {
		return fmt.Errorf("%w: no keyword found", ErrUnsafeStatement)
	}
	if first := strings.ToUpper(words[0]); first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: %s is not allowed", ErrUnsafeStatement, first)
	}
	for _, w := range words {
		if up := strings.ToUpper(w); deniedWords[up] {
			return fmt.Errorf("%w: %s is not allowed", ErrUnsafeStatement, up)
		}
	}
	return nil
}

// stripQuotedAndComments 把字符串字面量、带引号的标识符和注释替换成空格
func stripQuotedAndComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 4
			}
			b.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(s, i, c)
			b.WriteString(" q ")
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipQuoted 返回引号结束后的位置，双写引号视为转义
func skipQuoted(s string, i int, q byte) int {
	i++
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}
