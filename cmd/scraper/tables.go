package main

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// statTable is one extracted HTML table: a flat header row and the data
// rows beneath it, both as plain strings.
type statTable struct {
	Headers []string
	Rows    [][]string
}

// RowCount returns the number of data rows
func (t *statTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// yearRe matches a season year anywhere in heading text
var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// parseTables extracts every table carrying an id attribute from a page.
// Baseball Reference ships many tables inside HTML comments so they render
// lazily; those are recovered by re-parsing each comment node.
func parseTables(src string) (map[string]*statTable, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*statTable)
	collectTables(doc, tables)

	var comments func(*html.Node)
	comments = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
			if inner, err := html.Parse(strings.NewReader(n.Data)); err == nil {
				collectTables(inner, tables)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			comments(c)
		}
	}
	comments(doc)

	return tables, nil
}

// collectTables walks a parsed tree and records every identified table.
// A table already recorded keeps its first extraction.
func collectTables(n *html.Node, tables map[string]*statTable) {
	if n.Type == html.ElementNode && n.Data == "table" {
		if id := attrValue(n, "id"); id != "" {
			if _, seen := tables[id]; !seen {
				if t := tableData(n); t.RowCount() > 0 || len(t.Headers) > 0 {
					tables[id] = t
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTables(c, tables)
	}
}

// tableData flattens one table element. Header rows come from thead when
// present, otherwise the first row serves as the header. A two-level
// header collapses by prefixing each column with its group label.
func tableData(table *html.Node) *statTable {
	var headerRows, bodyRows [][]headerCell

	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				walk(c, true)
			case "tbody", "tfoot":
				walk(c, false)
			case "tr":
				row := rowCells(c)
				if inHead {
					headerRows = append(headerRows, row)
				} else {
					bodyRows = append(bodyRows, row)
				}
			case "table":
				// Nested layout table; its rows belong to itself
			default:
				walk(c, inHead)
			}
		}
	}
	walk(table, false)

	if len(headerRows) == 0 && len(bodyRows) > 0 {
		headerRows = bodyRows[:1]
		bodyRows = bodyRows[1:]
	}

	t := &statTable{Headers: flattenHeader(headerRows)}
	for _, row := range bodyRows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			for i := 0; i < c.span; i++ {
				cells = append(cells, c.text)
			}
		}
		if !emptyRow(cells) {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

// headerCell is one td/th with its colspan expanded lazily
type headerCell struct {
	text string
	span int
}

// rowCells extracts the cells of one tr element
func rowCells(tr *html.Node) []headerCell {
	var cells []headerCell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		span := 1
		if v := attrValue(c, "colspan"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 1 {
				span = n
			}
		}
		cells = append(cells, headerCell{text: nodeText(c), span: span})
	}
	return cells
}

// flattenHeader collapses the header rows into one name per column. With a
// group row above the column row, non-empty group labels prefix the
// columns they span, the way a two-level index flattens to "Group Col".
func flattenHeader(rows [][]headerCell) []string {
	if len(rows) == 0 {
		return nil
	}

	expand := func(row []headerCell) []string {
		var out []string
		for _, c := range row {
			for i := 0; i < c.span; i++ {
				out = append(out, c.text)
			}
		}
		return out
	}

	base := expand(rows[len(rows)-1])
	if len(rows) == 1 {
		return base
	}

	group := expand(rows[len(rows)-2])
	out := make([]string, len(base))
	for i, name := range base {
		if i < len(group) && group[i] != "" {
			out[i] = strings.TrimSpace(group[i] + " " + name)
		} else {
			out[i] = name
		}
	}
	return out
}

// cleanTable drops the noise rows Baseball Reference embeds in team
// tables: repeated header rows every screenful and the league summary
// rows, which belong to no team.
func cleanTable(t *statTable) *statTable {
	if t == nil || len(t.Headers) == 0 {
		return t
	}

	out := &statTable{Headers: t.Headers}
	first := t.Headers[0]
	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		if row[0] == first {
			continue
		}
		lower := strings.ToLower(row[0])
		if strings.Contains(lower, "avg") || strings.Contains(lower, "average") || strings.Contains(lower, "league") {
			continue
		}
		out.Rows = append(out.Rows, padRow(row, len(t.Headers)))
	}
	return out
}

// padRow right-pads a short row so every record matches the header width
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// emptyRow reports whether every cell is blank
func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// nodeText returns the concatenated text content of a node, trimmed
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// attrValue returns the value of one attribute, or empty when absent
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// payrollSections associates each payroll table on the page with the
// season its nearest preceding heading names. Headings and tables are
// visited in document order; a heading counts when it carries a year and
// reads like a payroll title.
func payrollSections(src string) (map[int][]*statTable, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	sections := make(map[int][]*statTable)
	currentYear := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h2", "h3", "b", "strong":
				if year := headingYear(nodeText(n)); year != 0 {
					currentYear = year
				}
			case "table":
				if currentYear != 0 {
					if t := tableData(n); t.RowCount() > 0 {
						sections[currentYear] = append(sections[currentYear], t)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sections, nil
}

// headingYear extracts the season year from heading text. Only headings
// that read like payroll titles count, so stray years in prose do not
// start a new section.
func headingYear(text string) int {
	m := yearRe.FindString(text)
	if m == "" {
		return 0
	}
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "payroll") &&
		!strings.Contains(lower, "mlb") &&
		!strings.Contains(lower, "team") &&
		!strings.Contains(lower, "opening") {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}

// pickPayrollTable chooses the season's payroll table from its section:
// the first table large enough to hold a team-per-row listing, falling
// back to the largest one found.
func pickPayrollTable(tables []*statTable, minRows int) *statTable {
	var largest *statTable
	for _, t := range tables {
		if t.RowCount() >= minRows {
			return t
		}
		if largest == nil || t.RowCount() > largest.RowCount() {
			largest = t
		}
	}
	return largest
}
