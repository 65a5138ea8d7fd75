package effect

import "strings"

// noise is decorative text stripped before splitting: zero-width characters,
// byte order marks, backticks and line breaks.
var noise = strings.NewReplacer(
	"\u200b", "",
	"\ufeff", "",
	"`", "",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// Split splits an effect string into its top-level clauses.
// Commas inside (), {}, [] or quotes do not split. Escaped quotes do not
// open or close a quote. Unbalanced closers are ignored (counters never go
// below zero), so malformed input still splits on a best-effort basis.
// Returned clauses are trimmed and non-empty.
func Split(effect string) []string {
	s := strings.TrimSpace(noise.Replace(effect))
	s = strings.TrimRight(s, "; ")
	if s == "" {
		return nil
	}

	var (
		clauses              []string
		round, curly, square int
		inDouble, inSingle   bool
		start                int
	)

	closeDepth := func(d *int) {
		if *d > 0 {
			*d--
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++ // escaped char never toggles quotes or depth
			continue
		}
		if inDouble {
			if c == '"' {
				inDouble = false
			}
			continue
		}
		if inSingle {
			if c == '\'' {
				inSingle = false
			}
			continue
		}

		switch c {
		case '"':
			inDouble = true
		case '\'':
			inSingle = true
		case '(':
			round++
		case ')':
			closeDepth(&round)
		case '{':
			curly++
		case '}':
			closeDepth(&curly)
		case '[':
			square++
		case ']':
			closeDepth(&square)
		case ',':
			if round == 0 && curly == 0 && square == 0 {
				clauses = appendClause(clauses, s[start:i])
				start = i + 1
			}
		}
	}

	return appendClause(clauses, s[start:])
}

func appendClause(clauses []string, c string) []string {
	if c = strings.TrimSpace(c); c != "" {
		clauses = append(clauses, c)
	}
	return clauses
}
