package lexer

import "strings"

// CommandBlocks is the preprocessing pass's side table: body text indexed
// by the block number embedded in its placeholder token.
type CommandBlocks struct {
	Bodies []string
}

// Preprocess scans source for `command { ... }` / `command <<< ... >>>`
// blocks and replaces each body with a placeholder token
// (`__COMMAND_BLOCK_n__`), storing the bodies in a side table (spec.md
// 4.1). Shell syntax inside a command body would otherwise confuse the
// main lexer; the stored body is lexed separately in Command mode at
// parse time, once the parser knows it is looking at a command section.
func Preprocess(source string) (string, *CommandBlocks) {
	var out strings.Builder
	blocks := &CommandBlocks{}
	i := 0
	n := len(source)
	for i < n {
		if start, braceForm, bodyStart := matchCommandOpen(source, i); start >= 0 {
			out.WriteString(source[i:bodyStart])
			var body string
			var end int
			if braceForm {
				body, end = scanBraceBody(source, bodyStart)
			} else {
				body, end = scanHeredocBody(source, bodyStart)
			}
			idx := len(blocks.Bodies)
			blocks.Bodies = append(blocks.Bodies, body)
			out.WriteString("__COMMAND_BLOCK_")
			out.WriteString(itoa(idx))
			out.WriteString("__")
			if braceForm {
				out.WriteString("}")
			} else {
				out.WriteString(">>>")
			}
			i = end
			continue
		}
		out.WriteByte(source[i])
		i++
	}
	return out.String(), blocks
}

// matchCommandOpen checks whether the "command" keyword begins at i
// (word-boundary) followed by `{` or `<<<`, skipping whitespace between
// them. Returns the body's start offset (just past the opener)
// and whether it is brace-delimited.
func matchCommandOpen(s string, i int) (start int, braceForm bool, bodyStart int) {
	if !strings.HasPrefix(s[i:], "command") {
		return -1, false, 0
	}
	if i > 0 && isIdentByte(s[i-1]) {
		return -1, false, 0
	}
	j := i + len("command")
	if j < len(s) && isIdentByte(s[j]) {
		return -1, false, 0
	}
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '{' {
		return i, true, j + 1
	}
	if strings.HasPrefix(s[j:], "<<<") {
		return i, false, j + 3
	}
	return -1, false, 0
}

// scanBraceBody scans a `command { ... }` body, tracking brace depth so
// that nested `{`/`}` from ~{}/${} placeholders don't terminate early.
func scanBraceBody(s string, start int) (string, int) {
	depth := 1
	i := start
	for i < len(s) {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start:i], i + 1
			}
		}
		i++
	}
	return s[start:], len(s)
}

// scanHeredocBody scans a `command <<< ... >>>` body, stopping at the
// first `>>>`.
func scanHeredocBody(s string, start int) (string, int) {
	idx := strings.Index(s[start:], ">>>")
	if idx < 0 {
		return s[start:], len(s)
	}
	return s[start : start+idx], start + idx + 3
}

func isIdentByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
