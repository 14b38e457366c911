package inline

import (
	"fmt"
	"strings"
)

type listError struct {
	off int
	msg string
}

func (e *listError) Error() string { return e.msg }

type listScanner struct {
	s   string
	pos int
}

func (s *listScanner) errorf(f string, args ...interface{}) error {
	return &listError{off: s.pos, msg: fmt.Sprintf(f, args...)}
}

func (s *listScanner) eof() bool { return s.pos >= len(s.s) }

func (s *listScanner) peek() byte { return s.s[s.pos] }

func (s *listScanner) skipSpace() {
	for !s.eof() && strings.IndexByte(" \t\r\n\f\v", s.peek()) >= 0 {
		s.pos++
	}
}

func (s *listScanner) accept(c byte) bool {
	if !s.eof() && s.peek() == c {
		s.pos++
		return true
	}
	return false
}

func (s *listScanner) quoted() (string, error) {
	if !s.accept('\'') {
		if s.eof() {
			return "", s.errorf("unexpected end of list")
		}
		return "", s.errorf("expect single-quoted url, got %q", s.peek())
	}
	start := s.pos
	var b strings.Builder
	for {
		if s.eof() {
			s.pos = start - 1
			return "", s.errorf("unterminated string")
		}
		c := s.peek()
		switch c {
		case '\'':
			s.pos++
			if b.Len() == 0 {
				s.pos = start - 1
				return "", s.errorf("empty url")
			}
			return b.String(), nil
		case '\n', '\r':
			return "", s.errorf("line break in string")
		case '\\':
			s.pos++
			if s.eof() {
				return "", s.errorf("unterminated escape")
			}
			c = s.peek()
		}
		b.WriteByte(c)
		s.pos++
	}
}

// parseStyleURLs parses a bracketed list of single-quoted urls, such as
// "['a.css', 'b.css']". A trailing comma is allowed.
func parseStyleURLs(lit string) ([]string, error) {
	s := &listScanner{s: lit}
	s.skipSpace()
	if !s.accept('[') {
		return nil, s.errorf("expect '['")
	}

	var urls []string
	for {
		s.skipSpace()
		if s.accept(']') {
			break
		}
		u, err := s.quoted()
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)

		s.skipSpace()
		if s.accept(',') {
			continue
		}
		if s.accept(']') {
			break
		}
		if s.eof() {
			return nil, s.errorf("unexpected end of list")
		}
		return nil, s.errorf("expect ',' or ']', got %q", s.peek())
	}

	s.skipSpace()
	if !s.eof() {
		return nil, s.errorf("unexpected trailing %q", s.s[s.pos:])
	}
	return urls, nil
}
