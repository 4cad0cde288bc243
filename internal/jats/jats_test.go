// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jats

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicID = "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.2 20190208//EN"

const sampleJATS = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE article PUBLIC "` + publicID + `" "` + JournalPublishing12 + `">
<article xmlns:xlink="http://www.w3.org/1999/xlink" article-type="research-article">
  <front>
    <article-meta>
      <title-group><article-title>Efficient Attention &amp; Friends</article-title></title-group>
    </article-meta>
  </front>
  <body><sec><p>See <xref ref-type="bibr" xlink:href="#b0">[1]</xref>.</p><break/></sec></body>
</article>
`

func TestParseDoctype(t *testing.T) {
	tests := []struct {
		name      string
		directive string
		want      Doctype
		wantOK    bool
	}{
		{
			name:      "public identifier",
			directive: `DOCTYPE article PUBLIC "` + publicID + `" "` + JournalPublishing12 + `"`,
			want:      Doctype{Name: "article", PublicID: publicID, SystemID: JournalPublishing12},
			wantOK:    true,
		},
		{
			name:      "system identifier single quoted",
			directive: `DOCTYPE article SYSTEM 'JATS-journalpublishing1.dtd'`,
			want:      Doctype{Name: "article", SystemID: "JATS-journalpublishing1.dtd"},
			wantOK:    true,
		},
		{
			name:      "internal subset only",
			directive: `DOCTYPE article [ <!ENTITY x "y"> ]`,
			want:      Doctype{Name: "article"},
			wantOK:    true,
		},
		{
			name:      "system identifier with internal subset",
			directive: "DOCTYPE article\n SYSTEM \"a.dtd\" [ <!ENTITY x \"y\"> ]",
			want:      Doctype{Name: "article", SystemID: "a.dtd"},
			wantOK:    true,
		},
		{
			name:      "not a doctype",
			directive: `ENTITY x "y"`,
			wantOK:    false,
		},
		{
			name:      "doctype prefix of another word",
			directive: `DOCTYPEX article`,
			wantOK:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDoctype(xml.Directive(tt.directive))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCanonicalize_AcceptsJATS12(t *testing.T) {
	out, err := Canonicalize([]byte(sampleJATS), DefaultDoctypes)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, xml.Header+"<!DOCTYPE article PUBLIC \""+publicID+"\" \""+JournalPublishing12+"\">\n<article "), s)
	assert.Contains(t, s, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	assert.Contains(t, s, `<xref ref-type="bibr" xlink:href="#b0">[1]</xref>`)
	assert.Contains(t, s, "Efficient Attention &amp; Friends")
	assert.Contains(t, s, "<break></break>")
	assert.True(t, strings.HasSuffix(s, "</article>\n"))

	// A canonical document is a fixed point.
	again, err := Canonicalize(out, DefaultDoctypes)
	require.NoError(t, err)
	assert.Equal(t, s, string(again))
}

func TestCanonicalize_TranscodesToUTF8(t *testing.T) {
	in := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<!DOCTYPE article SYSTEM \"" + JournalPublishing12 + "\">\n" +
		"<article><p>caf\xe9</p></article>"

	out, err := Canonicalize([]byte(in), DefaultDoctypes)
	require.NoError(t, err)
	assert.Contains(t, string(out), `encoding="UTF-8"`)
	assert.NotContains(t, string(out), "ISO-8859-1")
	assert.Contains(t, string(out), "<p>café</p>")
}

func TestCanonicalize_Rejects(t *testing.T) {
	doctype := `<!DOCTYPE article PUBLIC "` + publicID + `" "` + JournalPublishing12 + `">`

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty input", "", ErrMalformed},
		{"not xml", "%PDF-1.4 binary", ErrMalformed},
		{"html error page", "<html><body><h1>500 Internal Server Error</h1></body></html>", ErrMissingDoctype},
		{"unclosed root", doctype + "<article><front></front>", ErrMalformed},
		{"mismatched end tag", doctype + "<article><p></sec></article>", ErrMalformed},
		{"two roots", doctype + "<article></article><article></article>", ErrMalformed},
		{"text after root", doctype + "<article></article>trailing", ErrMalformed},
		{"undefined entity", doctype + "<article>&nbsp;</article>", ErrMalformed},
		{"doctype only", doctype, ErrMalformed},
		{"no doctype", `<?xml version="1.0"?><article></article>`, ErrMissingDoctype},
		{"tei instead of jats", `<!DOCTYPE TEI SYSTEM "http://www.tei-c.org/ns/1.0/tei.dtd"><TEI></TEI>`, ErrDoctypeNotAccepted},
		{"jats archiving dtd", `<!DOCTYPE article PUBLIC "x" "https://jats.nlm.nih.gov/archiving/1.2/JATS-archivearticle1.dtd"><article></article>`, ErrDoctypeNotAccepted},
		{"doctype without external id", `<!DOCTYPE article><article></article>`, ErrDoctypeNotAccepted},
		{"system id with trailing space", `<!DOCTYPE article SYSTEM "` + JournalPublishing12 + ` "><article></article>`, ErrDoctypeNotAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Canonicalize([]byte(tt.input), DefaultDoctypes)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, out)
		})
	}
}

func TestCanonicalize_CustomDoctypes(t *testing.T) {
	archiving := "https://jats.nlm.nih.gov/archiving/1.2/JATS-archivearticle1.dtd"
	in := `<!DOCTYPE article SYSTEM "` + archiving + `"><article></article>`

	_, err := Canonicalize([]byte(in), DefaultDoctypes)
	assert.ErrorIs(t, err, ErrDoctypeNotAccepted)

	_, err = Canonicalize([]byte(in), []string{JournalPublishing12, archiving})
	assert.NoError(t, err)

	_, err = Canonicalize([]byte(sampleJATS), nil)
	assert.ErrorIs(t, err, ErrDoctypeNotAccepted)
}
