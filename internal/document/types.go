package document

import "strings"

// Page is one document page: its plain text and the table rows recovered
// from positioned text fragments. A row is a slice of cell texts; cells may
// be empty.
type Page struct {
	Number int
	Text   string
	Tables [][]string
}

// Document is a fully read source document.
type Document struct {
	Path  string
	Pages []Page
}

// FullText joins per-page text with newline separators.
func (d *Document) FullText() string {
	var b strings.Builder
	for _, page := range d.Pages {
		b.WriteString(page.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// TableRows returns every table row from every page, in page order.
func (d *Document) TableRows() [][]string {
	var rows [][]string
	for _, page := range d.Pages {
		rows = append(rows, page.Tables...)
	}
	return rows
}
