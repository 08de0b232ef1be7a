package ops

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/scribe/internal/post"
)

const frontMatterDelim = "---\n"

// frontMatterMD only parses: the header block of a post file is handed to it
// and the decoded metadata is read back from the parser context.
var frontMatterMD = goldmark.New(goldmark.WithExtensions(&frontmatter.Extender{}))

// frontMatter is the YAML header of an exported post file.
type frontMatter struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
}

// encodePostFile renders p as YAML front matter followed by the raw markdown body.
func encodePostFile(p post.Post) ([]byte, error) {
	header, err := yaml.Marshal(frontMatter{Title: p.Title, Slug: p.Slug})
	if err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim)
	buf.Write(header)
	buf.WriteString(frontMatterDelim)
	buf.WriteString(p.Markdown)
	return buf.Bytes(), nil
}

// decodePostFile splits a post file into its front matter and markdown body.
// CRLF is accepted on the delimiter and header lines. The body is returned
// byte-for-byte as written after the closing delimiter.
func decodePostFile(data []byte) (post.Fields, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	header, body, err := splitFrontMatter(data)
	if err != nil {
		return post.Fields{}, err
	}

	var fm frontMatter
	ctx := parser.NewContext()
	frontMatterMD.Parser().Parse(text.NewReader(header), parser.WithContext(ctx))
	if meta := frontmatter.Get(ctx); meta != nil {
		if err := meta.Decode(&fm); err != nil {
			return post.Fields{}, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	return post.Fields{Title: fm.Title, Slug: fm.Slug, Markdown: string(body)}, nil
}

// splitFrontMatter returns the header block, both delimiter lines included,
// and everything after the closing delimiter line.
func splitFrontMatter(data []byte) (header, body []byte, err error) {
	line, rest := cutLine(data)
	if !isDelimLine(line) {
		return nil, nil, fmt.Errorf("missing front matter: file must start with %q", "---")
	}
	for len(rest) > 0 {
		line, next := cutLine(rest)
		if isDelimLine(line) {
			n := len(data) - len(next)
			return data[:n], data[n:], nil
		}
		rest = next
	}
	return nil, nil, fmt.Errorf("unterminated front matter")
}

// cutLine splits b after its first newline. The last line may lack one.
func cutLine(b []byte) (line, rest []byte) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i+1], b[i+1:]
	}
	return b, nil
}

func isDelimLine(line []byte) bool {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line) == "---"
}
