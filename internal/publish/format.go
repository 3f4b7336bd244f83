package publish

import (
	"strings"

	"fgfbot/internal/model"
)

const (
	psaHeader  = "New PSA live on FGF:\n"
	freeSuffix = " is #free! See the /r/FreeGameFindings thread below.\n\n"
	// Rich text renders #Free as its own tag, so the sentence drops the hash.
	richFreeSuffix = " is free! See the /r/FreeGameFindings thread below.\n\n"
	plainTags      = "#FGF #FreeGameFindings\n\n"
)

// IsPSA reports whether title selects the PSA template.
func IsPSA(title string) bool {
	return strings.Contains(strings.ToUpper(title), "PSA")
}

// PlainText renders the message for plain-text sinks: hashtags are literal tokens.
func PlainText(p model.SavedPost) string {
	var b strings.Builder
	if IsPSA(p.Title) {
		b.WriteString(psaHeader)
		b.WriteString(p.Title)
		b.WriteString("\n\n")
	} else {
		b.WriteString(p.Title)
		b.WriteString(freeSuffix)
	}
	b.WriteString(plainTags)
	b.WriteString(p.Permalink())
	return b.String()
}

// Rich renders the message for rich-text sinks with tag and link facets.
func Rich(p model.SavedPost) *RichText {
	rt := &RichText{}
	link := p.Permalink()
	if IsPSA(p.Title) {
		return rt.Text(psaHeader+p.Title+"\n\n").
			Tag("#FGF ", "FGF").
			Tag("#FreeGameFindings\n\n", "FreeGameFindings").
			Link(link, link)
	}
	return rt.Text(p.Title+richFreeSuffix).
		Tag("#FGF ", "FGF").
		Tag("#FreeGameFindings ", "FreeGameFindings").
		Tag("#Free\n\n", "Free").
		Link(link, link)
}

type FacetKind string

const (
	FacetTag  FacetKind = "tag"
	FacetLink FacetKind = "link"
)

// Facet annotates Text[Start:End]. Offsets are UTF-8 byte offsets.
type Facet struct {
	Start int
	End   int
	Kind  FacetKind
	// Value is the tag (without '#') or the link URI.
	Value string
}

// RichText accumulates text and facets.
type RichText struct {
	b      strings.Builder
	facets []Facet
}

func (r *RichText) Text(s string) *RichText {
	r.b.WriteString(s)
	return r
}

// Tag appends s and marks it as a tag. Trailing whitespace in s is not part of the facet.
func (r *RichText) Tag(s, tag string) *RichText {
	return r.annotated(s, FacetTag, tag)
}

// Link appends s and marks it as a link to uri.
func (r *RichText) Link(s, uri string) *RichText {
	return r.annotated(s, FacetLink, uri)
}

func (r *RichText) annotated(s string, kind FacetKind, value string) *RichText {
	start := r.b.Len()
	r.b.WriteString(s)
	if token := strings.TrimRight(s, " \t\r\n"); token != "" {
		r.facets = append(r.facets, Facet{Start: start, End: start + len(token), Kind: kind, Value: value})
	}
	return r
}

func (r *RichText) String() string { return r.b.String() }

func (r *RichText) Facets() []Facet {
	return append([]Facet(nil), r.facets...)
}
