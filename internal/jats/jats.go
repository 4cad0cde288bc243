// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jats checks that a conversion result is a well-formed JATS
// document and re-serializes it into a canonical UTF-8 form.
package jats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"
)

// JournalPublishing12 is the system identifier of the JATS 1.2 journal
// publishing DTD, the schema Grobid's JATS endpoint emits.
const JournalPublishing12 = "https://jats.nlm.nih.gov/publishing/1.2/JATS-journalpublishing1.dtd"

// DefaultDoctypes lists the DOCTYPE system identifiers accepted when no
// override is configured.
var DefaultDoctypes = []string{JournalPublishing12}

var (
	// ErrMalformed reports input that is not well-formed XML.
	ErrMalformed = errors.New("malformed XML")

	// ErrMissingDoctype reports a document without a DOCTYPE declaration.
	ErrMissingDoctype = errors.New("missing DOCTYPE declaration")

	// ErrDoctypeNotAccepted reports a DOCTYPE whose system identifier is not
	// in the accepted list.
	ErrDoctypeNotAccepted = errors.New("DOCTYPE not accepted")
)

// Doctype holds the parts of a DOCTYPE declaration.
type Doctype struct {
	Name     string
	PublicID string
	SystemID string
}

// ParseDoctype extracts the root name and external identifiers from a
// DOCTYPE directive. It reports false when d is some other directive.
func ParseDoctype(d xml.Directive) (Doctype, bool) {
	rest, ok := strings.CutPrefix(string(d), "DOCTYPE")
	if !ok || (rest != "" && !isSpace(rest[0])) {
		return Doctype{}, false
	}

	var dt Doctype
	toks := doctypeTokens(rest)
	if len(toks) == 0 {
		return dt, true
	}
	dt.Name = toks[0]
	if len(toks) >= 3 {
		switch toks[1] {
		case "PUBLIC":
			dt.PublicID = toks[2]
			if len(toks) >= 4 {
				dt.SystemID = toks[3]
			}
		case "SYSTEM":
			dt.SystemID = toks[2]
		}
	}
	return dt, true
}

// doctypeTokens splits the body of a DOCTYPE into bare words and quoted
// literals, stopping at the internal subset.
func doctypeTokens(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '[':
			return toks
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return toks
			}
			toks = append(toks, s[i+1:i+1+end])
			i += end + 2
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && s[j] != '[' && s[j] != '"' && s[j] != '\'' {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Canonicalize parses data, checks that its DOCTYPE system identifier is
// one of accepted, and returns the document re-serialized as UTF-8 with a
// fresh XML declaration. Errors wrap ErrMalformed, ErrMissingDoctype or
// ErrDoctypeNotAccepted.
func Canonicalize(data []byte, accepted []string) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	var (
		doctype *Doctype
		stack   []string
		roots   int
	)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		depth := len(stack)
		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			if err := encodeTop(enc, t, depth); err != nil {
				return nil, err
			}

		case xml.Directive:
			if depth > 0 || roots > 0 {
				return nil, fmt.Errorf("%w: directive outside the prolog", ErrMalformed)
			}
			dt, ok := ParseDoctype(t)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected directive <!%s>", ErrMalformed, firstWord(t))
			}
			if doctype != nil {
				return nil, fmt.Errorf("%w: more than one DOCTYPE", ErrMalformed)
			}
			doctype = &dt
			if err := encodeTop(enc, t, depth); err != nil {
				return nil, err
			}

		case xml.StartElement:
			if depth == 0 {
				if roots > 0 {
					return nil, fmt.Errorf("%w: more than one root element", ErrMalformed)
				}
				roots++
				if err := checkDoctype(doctype, accepted); err != nil {
					return nil, err
				}
			}
			name := qualified(t.Name)
			stack = append(stack, name)
			if err := enc.EncodeToken(flatten(t, name)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}

		case xml.EndElement:
			name := qualified(t.Name)
			if depth == 0 || stack[depth-1] != name {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", ErrMalformed, name)
			}
			stack = stack[:depth-1]
			if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if depth == 1 {
				if err := enc.EncodeToken(xml.CharData("\n")); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
			}

		case xml.CharData:
			if depth == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside the root element", ErrMalformed)
				}
				continue
			}
			if err := enc.Flush(); err != nil {
				return nil, err
			}
			textEscaper.WriteString(&buf, string(t))

		case xml.Comment:
			if err := encodeTop(enc, t, depth); err != nil {
				return nil, err
			}
		}
	}

	if roots == 0 {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, stack[len(stack)-1])
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// textEscaper escapes character data the way canonical XML does.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

func checkDoctype(dt *Doctype, accepted []string) error {
	if dt == nil {
		return ErrMissingDoctype
	}
	if dt.SystemID == "" || !slices.Contains(accepted, dt.SystemID) {
		return fmt.Errorf("%w: %q", ErrDoctypeNotAccepted, dt.SystemID)
	}
	return nil
}

// encodeTop writes tok and, in the prolog or epilog, a line break after it.
func encodeTop(enc *xml.Encoder, tok xml.Token, depth int) error {
	if err := enc.EncodeToken(tok); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if depth == 0 {
		if err := enc.EncodeToken(xml.CharData("\n")); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return nil
}

// qualified joins a raw (prefix, local) name back into prefix:local. Raw
// names keep the document's prefixes so the encoder does not invent its own.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func flatten(t xml.StartElement, name string) xml.StartElement {
	out := xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: make([]xml.Attr, len(t.Attr)),
	}
	for i, a := range t.Attr {
		out.Attr[i] = xml.Attr{Name: xml.Name{Local: qualified(a.Name)}, Value: a.Value}
	}
	return out
}

func firstWord(d xml.Directive) string {
	s := strings.TrimSpace(string(d))
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }); i >= 0 {
		return s[:i]
	}
	return s
}
