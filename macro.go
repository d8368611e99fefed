package usher

import (
	"regexp"
	"strings"
)

//
// =======================================================
// Path macro engine
// =======================================================
//
// A path pattern is a list of "/" separated segments. A segment is either
// a literal, or contains exactly one macro slot written {name} or
// {name:type}, optionally surrounded by literal text inside the segment
// ("img-{id}.png"). Supported types: int, word, re:<pattern>. An untyped
// macro matches any non-empty run within the segment.
//

var wordRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type macroSlot struct {
	name   string
	typ    string
	prefix string
	suffix string
	re     *regexp.Regexp
}

type pathSegment struct {
	literal string
	macro   *macroSlot
}

// CompiledPath is the matcher built from one pattern. Built once at
// registration, read-only afterwards.
type CompiledPath struct {
	raw      string
	segments []pathSegment
	names    []string
	literals int
}

// splitPath cuts a path into segments. "/" and "" both yield no segments.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// CompilePath parses a pattern. All syntax problems surface here, at
// registration time, never during request matching.
func CompilePath(pattern string) (*CompiledPath, error) {
	cp := &CompiledPath{raw: pattern}
	seen := map[string]bool{}

	for _, seg := range splitPath(pattern) {
		open := strings.IndexByte(seg, '{')
		if open < 0 {
			if strings.IndexByte(seg, '}') >= 0 {
				return nil, configErr("path %q: unbalanced '}' in segment %q", pattern, seg)
			}
			cp.segments = append(cp.segments, pathSegment{literal: seg})
			cp.literals++
			continue
		}

		end := strings.IndexByte(seg, '}')
		if end < open {
			return nil, configErr("path %q: unbalanced macro delimiters in segment %q", pattern, seg)
		}
		rest := seg[end+1:]
		if strings.ContainsAny(rest, "{}") || strings.ContainsAny(seg[open+1:end], "{") {
			return nil, configErr("path %q: segment %q may hold one macro", pattern, seg)
		}

		slot, err := parseSlot(seg[open+1:end], seg[:open], rest)
		if err != nil {
			return nil, configWrap(err, "path %q", pattern)
		}
		if seen[slot.name] {
			return nil, configErr("path %q: duplicate macro name %q", pattern, slot.name)
		}
		seen[slot.name] = true
		cp.names = append(cp.names, slot.name)
		cp.segments = append(cp.segments, pathSegment{macro: slot})
	}
	return cp, nil
}

func parseSlot(body, prefix, suffix string) (*macroSlot, error) {
	slot := &macroSlot{prefix: prefix, suffix: suffix}

	name, typ, hasType := strings.Cut(body, ":")
	slot.name = strings.TrimSpace(name)
	if slot.name == "" {
		return nil, configErr("empty macro name")
	}
	if !hasType {
		return slot, nil
	}

	switch {
	case typ == "int", typ == "word", typ == "string":
		slot.typ = typ
	case strings.HasPrefix(typ, "re:"):
		expr := strings.TrimPrefix(typ, "re:")
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, configWrap(err, "macro %q: bad expression", slot.name)
		}
		slot.typ = "re"
		slot.re = re
	default:
		return nil, configErr("macro %q: unknown type %q", slot.name, typ)
	}
	return slot, nil
}

// String renders the pattern back to its source form.
func (cp *CompiledPath) String() string { return cp.raw }

// IsLiteral reports whether the pattern holds no macro slots.
func (cp *CompiledPath) IsLiteral() bool { return len(cp.names) == 0 }

// Names returns the macro variable names in order of appearance.
func (cp *CompiledPath) Names() []string { return cp.names }

// Literals is the count of fully literal segments, the specificity rank.
func (cp *CompiledPath) Literals() int { return cp.literals }

func (cp *CompiledPath) segCount() int { return len(cp.segments) }

// Match tests pre-split request segments against the pattern. The match is
// anchored: segment counts must agree. On success the extracted variables
// are returned as raw strings; typed coercion happens during binding.
func (cp *CompiledPath) Match(segs []string) (map[string]string, bool) {
	if len(segs) != len(cp.segments) {
		return nil, false
	}
	var vars map[string]string
	for i, ps := range cp.segments {
		if ps.macro == nil {
			if ps.literal != segs[i] {
				return nil, false
			}
			continue
		}
		val, ok := ps.macro.capture(segs[i])
		if !ok {
			return nil, false
		}
		if vars == nil {
			vars = make(map[string]string, len(cp.names))
		}
		vars[ps.macro.name] = val
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return vars, true
}

// MatchPath is Match over an unsplit path.
func (cp *CompiledPath) MatchPath(path string) (map[string]string, bool) {
	return cp.Match(splitPath(path))
}

func (m *macroSlot) capture(seg string) (string, bool) {
	if !strings.HasPrefix(seg, m.prefix) || !strings.HasSuffix(seg, m.suffix) {
		return "", false
	}
	val := seg[len(m.prefix) : len(seg)-len(m.suffix)]
	if val == "" {
		return "", false
	}
	return val, m.accepts(val)
}

func (m *macroSlot) accepts(val string) bool {
	switch m.typ {
	case "int":
		return isInt(val)
	case "word":
		return wordRe.MatchString(val)
	case "re":
		return m.re.MatchString(val)
	default:
		return true
	}
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// overlaps reports whether two patterns could accept a common path. Used
// at registration to reject ambiguous routes of equal specificity. Two
// macro slots are assumed to intersect; proving regexp disjointness is
// not worth the trouble for a startup check.
func (cp *CompiledPath) overlaps(other *CompiledPath) bool {
	if len(cp.segments) != len(other.segments) {
		return false
	}
	for i := range cp.segments {
		a, b := cp.segments[i], other.segments[i]
		switch {
		case a.macro == nil && b.macro == nil:
			if a.literal != b.literal {
				return false
			}
		case a.macro == nil:
			if _, ok := b.macro.capture(a.literal); !ok {
				return false
			}
		case b.macro == nil:
			if _, ok := a.macro.capture(b.literal); !ok {
				return false
			}
		}
	}
	return true
}
