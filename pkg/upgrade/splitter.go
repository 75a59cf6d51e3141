package upgrade

import (
	"regexp"
	"strings"
	"unicode"
)

var delimiterDirective = regexp.MustCompile(`(?i)^\s*DELIMITER\s+(\S+)\s*$`)

// SplitCommands breaks a script into individually executable commands.
//
// Commands end at the current delimiter (";" by default). A line of the form
// "DELIMITER $$" changes the delimiter for the lines that follow, which is how
// MySQL scripts define stored routines. Delimiters inside quoted strings,
// quoted identifiers and comments are ignored. Commands that hold nothing but
// comments and whitespace are dropped since the server rejects them.
func SplitCommands(script string) []string {
	s := &splitter{delimiter: ";"}

	for _, line := range strings.SplitAfter(script, "\n") {
		if s.idle() {
			if m := delimiterDirective.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
				s.flush()
				s.delimiter = m[1]
				continue
			}
		}

		s.scan(line)
	}

	s.flush()
	return s.commands
}

type splitter struct {
	commands     []string
	current      strings.Builder
	delimiter    string
	quote        byte
	lineComment  bool
	blockComment bool
	hasCode      bool
}

func (s *splitter) idle() bool {
	return s.quote == 0 && !s.blockComment
}

func (s *splitter) scan(line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case s.lineComment:
			if c == '\n' {
				s.lineComment = false
			}
			s.current.WriteByte(c)

		case s.blockComment:
			if strings.HasPrefix(line[i:], "*/") {
				s.blockComment = false
				s.current.WriteString("*/")
				i++
				continue
			}
			s.current.WriteByte(c)

		case s.quote != 0:
			s.current.WriteByte(c)
			if c == '\\' && s.quote != '`' && i+1 < len(line) {
				s.current.WriteByte(line[i+1])
				i++
				continue
			}
			if c == s.quote {
				s.quote = 0
			}

		case strings.HasPrefix(line[i:], s.delimiter):
			s.flush()
			i += len(s.delimiter) - 1

		case c == '\'' || c == '"' || c == '`':
			s.quote = c
			s.hasCode = true
			s.current.WriteByte(c)

		case c == '#' || isDashComment(line[i:]):
			s.lineComment = true
			s.current.WriteByte(c)

		case strings.HasPrefix(line[i:], "/*"):
			s.blockComment = true
			s.current.WriteString("/*")
			i++

		default:
			if !unicode.IsSpace(rune(c)) {
				s.hasCode = true
			}
			s.current.WriteByte(c)
		}
	}
}

func (s *splitter) flush() {
	if cmd := strings.TrimSpace(s.current.String()); cmd != "" && s.hasCode {
		s.commands = append(s.commands, cmd)
	}

	s.current.Reset()
	s.hasCode = false
	s.lineComment = false
}

// isDashComment reports whether text starts a "-- " comment. MySQL requires
// whitespace (or end of line) after the dashes.
func isDashComment(text string) bool {
	if !strings.HasPrefix(text, "--") {
		return false
	}

	return len(text) == 2 || unicode.IsSpace(rune(text[2]))
}
