package syntax

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iw2rmb/vistex/buffer"
)

// Arity is the argument shape of a known command or environment.
type Arity struct {
	Required int
	Optional int
	// EmptyGroup consumes a trailing "{}" after a command with no required
	// arguments, as in \LaTeX{}.
	EmptyGroup bool
}

// Grammar supplies argument arities. Unknown names take every directly
// following group and bracket.
type Grammar interface {
	CommandArity(name string) (Arity, bool)
	EnvironmentArity(name string) (Arity, bool)
}

type mode uint8

const (
	modeDoc mode = iota
	modeGroup
	modeOptional
	modeEnv
)

// frame is the parsing context of a content region.
type frame struct {
	mode  mode
	env   string
	depth int // enclosing open brace groups
}

func (f frame) bracketed() bool { return f.mode == modeGroup || f.mode == modeOptional }

// checkEvery is the number of top-level items parsed between context checks.
const checkEvery = 32

type item struct {
	start int
	node  *Node
}

type scanner struct {
	text    string
	g       Grammar
	ctx     context.Context
	err     error
	reuse   map[int][]reusable
	inherit *inheritIndex

	// hitLimit records that some construct needed text past the region
	// limit, so the region result cannot be trusted.
	hitLimit bool

	reused int
	built  int
}

func (s *scanner) limited(limit int) bool { return limit < len(s.text) }

func (s *scanner) parseSeq(pos, limit int, f frame) (items []item, end int, closed bool) {
	for pos < limit {
		if s.err != nil {
			return items, pos, false
		}
		if f.mode == modeDoc && f.depth == 0 && s.ctx != nil && len(items)%checkEvery == 0 {
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return items, pos, false
			}
		}
		c := s.text[pos]
		switch {
		case c == '}' && f.mode == modeGroup:
			return items, pos, true
		case c == ']' && f.mode == modeOptional:
			return items, pos, true
		case c == '}' && f.depth > 0:
			return items, pos, false
		case c == '\\' && f.mode == modeEnv && s.atEnd(pos, limit, f.env):
			return items, pos, true
		case c == '\n' && f.bracketed() && s.paragraphBreak(pos, limit):
			return items, pos, false
		}
		if n := s.tryReuse(pos, limit, f); n != nil {
			items = append(items, item{start: pos, node: n})
			pos += n.length
			continue
		}
		n, next := s.parseItem(pos, limit, f)
		items = append(items, item{start: pos, node: n})
		pos = next
	}
	return items, pos, false
}

func (s *scanner) parseItem(pos, limit int, f frame) (*Node, int) {
	switch s.text[pos] {
	case '\\':
		return s.parseBackslash(pos, limit, f)
	case '{':
		return s.parseGroup(pos, limit, f)
	case '$':
		return s.parseDollarMath(pos, limit)
	case '%':
		return s.parseComment(pos, limit)
	}
	return s.parseText(pos, limit, f)
}

func (s *scanner) parseText(pos, limit int, f frame) (*Node, int) {
	i := pos + 1
	for i < limit {
		c := s.text[i]
		if c == '\\' || c == '{' || c == '$' || c == '%' {
			break
		}
		if c == '}' && (f.mode == modeGroup || f.depth > 0) {
			break
		}
		if c == ']' && f.mode == modeOptional {
			break
		}
		if c == '\n' && f.bracketed() && s.paragraphBreak(i, limit) {
			break
		}
		i++
	}
	return s.newNode(KindText, "", pos, i, nil, 0), i
}

// paragraphBreak reports whether the newline at pos starts a blank line.
func (s *scanner) paragraphBreak(pos, limit int) bool {
	j := pos + 1
	for j < limit && (s.text[j] == ' ' || s.text[j] == '\t' || s.text[j] == '\r') {
		j++
	}
	if j < limit {
		return s.text[j] == '\n'
	}
	if s.limited(limit) {
		s.hitLimit = true
	}
	return true
}

func (s *scanner) atEnd(pos, limit int, env string) bool {
	closer := `\end{` + env + `}`
	if !strings.HasPrefix(s.text[pos:], closer) {
		return false
	}
	if pos+len(closer) > limit {
		s.hitLimit = true
		return false
	}
	return true
}

func (s *scanner) parseBackslash(pos, limit int, f frame) (*Node, int) {
	if pos+1 >= limit {
		if s.limited(limit) {
			s.hitLimit = true
		}
		return s.newNode(KindText, "", pos, pos+1, nil, 0), pos + 1
	}
	c := s.text[pos+1]
	if !isLetter(c) {
		switch c {
		case '(':
			return s.parseDelimMath(pos, limit, `\)`, 0)
		case '[':
			return s.parseDelimMath(pos, limit, `\]`, FlagDisplay)
		}
		_, size := utf8.DecodeRuneInString(s.text[pos+1 : limit])
		end := pos + 1 + size
		return s.newNode(KindCommand, s.text[pos+1:end], pos, end, nil, 0), end
	}

	j := pos + 1
	for j < limit && isLetter(s.text[j]) {
		j++
	}
	if j == limit && s.limited(limit) && isLetter(s.text[limit]) {
		s.hitLimit = true
	}
	name := s.text[pos+1 : j]
	var flags Flags
	if j < limit && s.text[j] == '*' {
		flags |= FlagStarred
		j++
	}
	switch name {
	case "verb":
		return s.parseVerb(pos, j, limit, flags)
	case "begin":
		if n, next, ok := s.parseEnvironment(pos, j, limit, f); ok {
			return n, next
		}
	}
	return s.parseCommand(pos, j, limit, f, name, flags)
}

func (s *scanner) parseCommand(pos, p, limit int, f frame, name string, flags Flags) (*Node, int) {
	ar, known := s.commandArity(name)
	var kids []item
	req, opt := 0, 0
	for p < limit {
		var n *Node
		next := p
		switch {
		case s.text[p] == '[' && (!known || opt < ar.Optional):
			n, next = s.parseOptional(p, limit, f)
			opt++
		case s.text[p] == '{' && (!known || req < ar.Required):
			n, next = s.parseGroup(p, limit, f)
			req++
		}
		if n == nil {
			break
		}
		if n.Broken() {
			flags |= FlagIncomplete
		}
		kids = append(kids, item{start: p, node: n})
		p = next
	}
	if known && ar.EmptyGroup && ar.Required == 0 && p+1 < limit && s.text[p] == '{' && s.text[p+1] == '}' {
		kids = append(kids, item{start: p, node: s.newNode(KindGroup, "", p, p+2, nil, 0)})
		p += 2
	}
	if known && req < ar.Required {
		flags |= FlagIncomplete
	}
	return s.newNode(KindCommand, name, pos, p, kids, flags), p
}

func (s *scanner) commandArity(name string) (Arity, bool) {
	if s.g == nil {
		return Arity{}, false
	}
	return s.g.CommandArity(name)
}

func (s *scanner) parseGroup(pos, limit int, f frame) (*Node, int) {
	items, end, closed := s.parseSeq(pos+1, limit, frame{mode: modeGroup, depth: f.depth + 1})
	if closed {
		return s.newNode(KindGroup, "", pos, end+1, items, 0), end + 1
	}
	return s.recover(KindGroup, "", pos, limit, end)
}

func (s *scanner) parseOptional(pos, limit int, f frame) (*Node, int) {
	items, end, closed := s.parseSeq(pos+1, limit, frame{mode: modeOptional, depth: f.depth})
	if closed {
		return s.newNode(KindOptional, "", pos, end+1, items, 0), end + 1
	}
	return s.recover(KindOptional, "", pos, limit, end)
}

// recover truncates an unterminated construct at the end of its first line,
// or earlier where its content stopped at an enclosing terminator.
func (s *scanner) recover(kind Kind, name string, pos, limit, stopped int) (*Node, int) {
	if stopped >= limit && s.limited(limit) {
		s.hitLimit = true
	}
	eol := buffer.LineEnd(s.text, pos)
	if stopped < eol {
		eol = stopped
	}
	if eol > limit {
		eol = limit
	}
	if eol <= pos {
		eol = pos + 1
	}
	return s.newNode(kind, name, pos, eol, nil, FlagBroken), eol
}

func (s *scanner) parseEnvironment(pos, p, limit int, f frame) (*Node, int, bool) {
	if p >= limit || s.text[p] != '{' {
		return nil, 0, false
	}
	j := p + 1
	for j < limit && isEnvNameChar(s.text[j]) {
		j++
	}
	if j >= limit || s.text[j] != '}' || j == p+1 {
		if j >= limit && s.limited(limit) {
			s.hitLimit = true
		}
		return nil, 0, false
	}
	name := s.text[p+1 : j]
	kids := []item{{start: p, node: s.nameGroup(p, j+1)}}
	q := j + 1

	ar, known := s.environmentArity(name)
	req, opt := 0, 0
	for q < limit {
		var n *Node
		next := q
		switch {
		case s.text[q] == '[' && (!known || opt < ar.Optional):
			n, next = s.parseOptional(q, limit, f)
			opt++
		case s.text[q] == '{' && (!known || req < ar.Required):
			n, next = s.parseGroup(q, limit, f)
			req++
		}
		if n == nil {
			break
		}
		kids = append(kids, item{start: q, node: n})
		q = next
	}
	begin := s.newNode(KindCommand, "begin", pos, q, kids, 0)

	body, end, closed := s.parseSeq(q, limit, frame{mode: modeEnv, env: name, depth: f.depth})
	if !closed {
		n, next := s.recover(KindEnvironment, name, pos, limit, end)
		return n, next, true
	}
	endLen := len(`\end{`) + len(name) + 1
	endCmd := s.newNode(KindCommand, "end", end, end+endLen,
		[]item{{start: end + 4, node: s.nameGroup(end+4, end+endLen)}}, 0)
	bodyNode := s.newNode(KindEnvBody, name, q, end, body, 0)
	env := s.newNode(KindEnvironment, name, pos, end+endLen, []item{
		{start: pos, node: begin},
		{start: q, node: bodyNode},
		{start: end, node: endCmd},
	}, 0)
	return env, end + endLen, true
}

func (s *scanner) nameGroup(from, to int) *Node {
	text := s.newNode(KindText, "", from+1, to-1, nil, 0)
	return s.newNode(KindGroup, "", from, to, []item{{start: from + 1, node: text}}, FlagEnvName)
}

func (s *scanner) environmentArity(name string) (Arity, bool) {
	if s.g == nil {
		return Arity{}, false
	}
	return s.g.EnvironmentArity(name)
}

func (s *scanner) parseVerb(pos, p, limit int, flags Flags) (*Node, int) {
	if p >= limit {
		if s.limited(limit) {
			s.hitLimit = true
		}
		return s.newNode(KindVerbatim, "verb", pos, p, nil, flags|FlagBroken), p
	}
	delim := s.text[p]
	if delim == '\n' || delim == ' ' || delim >= utf8.RuneSelf || isLetter(delim) {
		return s.newNode(KindVerbatim, "verb", pos, p, nil, flags|FlagBroken), p
	}
	eol := buffer.LineEnd(s.text, p)
	if eol > limit {
		eol = limit
	}
	k := strings.IndexByte(s.text[p+1:eol], delim)
	if k < 0 {
		return s.recover(KindVerbatim, "verb", pos, limit, eol)
	}
	end := p + 1 + k + 1
	return s.newNode(KindVerbatim, "verb", pos, end, nil, flags), end
}

func (s *scanner) parseDollarMath(pos, limit int) (*Node, int) {
	closer := "$"
	var flags Flags
	if pos+1 < limit && s.text[pos+1] == '$' {
		closer = "$$"
		flags = FlagDisplay
	} else if pos+1 == limit && s.limited(limit) {
		s.hitLimit = true
	}
	i := pos + len(closer)
	for i < limit {
		c := s.text[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case strings.HasPrefix(s.text[i:limit], closer):
			end := i + len(closer)
			return s.newNode(KindMath, "", pos, end, nil, flags), end
		case c == '\n' && s.paragraphBreak(i, limit):
			return s.recover(KindMath, "", pos, limit, i)
		}
		i++
	}
	return s.recover(KindMath, "", pos, limit, limit)
}

func (s *scanner) parseDelimMath(pos, limit int, closer string, flags Flags) (*Node, int) {
	i := pos + 2
	for i < limit {
		c := s.text[i]
		switch {
		case c == '\\':
			if strings.HasPrefix(s.text[i:limit], closer) {
				end := i + len(closer)
				return s.newNode(KindMath, "", pos, end, nil, flags), end
			}
			i += 2
			continue
		case c == '\n' && s.paragraphBreak(i, limit):
			return s.recover(KindMath, "", pos, limit, i)
		}
		i++
	}
	return s.recover(KindMath, "", pos, limit, limit)
}

func (s *scanner) parseComment(pos, limit int) (*Node, int) {
	eol := buffer.LineEnd(s.text, pos)
	if eol > limit {
		eol = limit
		s.hitLimit = true
	}
	return s.newNode(KindComment, "", pos, eol, nil, 0), eol
}

func (s *scanner) newNode(kind Kind, name string, start, end int, items []item, flags Flags) *Node {
	var kids []Child
	fragile := flags&FlagBroken != 0
	if len(items) > 0 {
		kids = make([]Child, len(items))
		for i, it := range items {
			kids[i] = Child{Offset: it.start - start, Node: it.node}
			fragile = fragile || it.node.fragile
		}
	}
	id, ok := s.inherit.take(kind, name, start)
	if !ok {
		id = nextID()
	}
	s.built++
	return &Node{
		id:       id,
		kind:     kind,
		name:     name,
		length:   end - start,
		flags:    flags,
		hash:     hashText(s.text[start:end]),
		hashed:   true,
		fragile:  fragile,
		children: kids,
	}
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isEnvNameChar(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '*' || c == '-' || c == '_'
}
