package streaming

import "strings"

// HeadContent is the assembled <head> of a shell document.
//
// Grounded on original_source/crates/edge-streaming/src/shell.rs (read
// in full).
type HeadContent struct {
	Title   string
	Meta    [][2]string // name, content
	Links   []string    // pre-rendered <link>/<style> tags
	Scripts []string
}

// NewHeadContent starts a HeadContent with a title.
func NewHeadContent(title string) HeadContent {
	return HeadContent{Title: title}
}

func (h HeadContent) WithMeta(name, content string) HeadContent {
	h.Meta = append(h.Meta, [2]string{name, content})
	return h
}

func (h HeadContent) WithStylesheet(href string) HeadContent {
	h.Links = append(h.Links, `<link rel="stylesheet" href="`+href+`">`)
	return h
}

func (h HeadContent) WithStyle(css string) HeadContent {
	h.Links = append(h.Links, "<style>"+css+"</style>")
	return h
}

func (h HeadContent) WithScript(js string) HeadContent {
	h.Scripts = append(h.Scripts, js)
	return h
}

// Render produces the head's inner HTML.
func (h HeadContent) Render() string {
	var b strings.Builder

	if h.Title != "" {
		b.WriteString("<title>")
		b.WriteString(h.Title)
		b.WriteString("</title>\n")
	}

	for _, kv := range h.Meta {
		b.WriteString(`<meta name="`)
		b.WriteString(kv[0])
		b.WriteString(`" content="`)
		b.WriteString(kv[1])
		b.WriteString(`">` + "\n")
	}

	for _, link := range h.Links {
		b.WriteString(link)
		b.WriteByte('\n')
	}

	for _, script := range h.Scripts {
		b.WriteString("<script>")
		b.WriteString(script)
		b.WriteString("</script>\n")
	}

	return b.String()
}

// Shell is the static document structure every section streams into.
type Shell struct {
	Doctype   bool
	Head      HeadContent
	BodyStart string
	BodyEnd   string
}

// NewShell builds a shell with the reference's default body
// wrapper (<body><main>...</main></body>).
func NewShell(head HeadContent) Shell {
	return Shell{
		Doctype:   true,
		Head:      head,
		BodyStart: "<body>\n<main>\n",
		BodyEnd:   "</main>\n</body>\n</html>",
	}
}

func (s Shell) WithBodyStart(html string) Shell {
	s.BodyStart = html
	return s
}

func (s Shell) WithBodyEnd(html string) Shell {
	s.BodyEnd = html
	return s
}

// RenderOpening produces everything sent before any section: doctype,
// head, and the opening body markup.
func (s Shell) RenderOpening() string {
	var b strings.Builder
	if s.Doctype {
		b.WriteString("<!DOCTYPE html>\n")
	}
	b.WriteString("<html>\n<head>\n")
	b.WriteString(s.Head.Render())
	b.WriteString("</head>\n")
	b.WriteString(s.BodyStart)
	return b.String()
}

// RenderClosing produces the markup sent after all sections.
func (s Shell) RenderClosing() string {
	return s.BodyEnd
}
