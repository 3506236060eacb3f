package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// DOCXRenderer writes a minimal WordprocessingML package.
type DOCXRenderer struct{}

// NewDOCXRenderer constructs a DOCX renderer.
func NewDOCXRenderer() *DOCXRenderer {
	return &DOCXRenderer{}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Render produces the DOCX bytes for src.
func (r *DOCXRenderer) Render(src Source) ([]byte, error) {
	if strings.TrimSpace(src.Title) == "" {
		return nil, fmt.Errorf("docx requires a title")
	}

	var body strings.Builder
	if src.SchoolName != "" {
		writeParagraph(&body, strings.ToUpper(src.SchoolName), true, "center", 24)
	}
	writeParagraph(&body, numberLabel(src), false, "right", 18)
	writeParagraph(&body, src.Title, true, "center", 28)
	for _, block := range Blocks(src.Content) {
		writeParagraph(&body, block.Text, block.Heading, "both", 22)
	}
	if src.Author != "" {
		writeParagraph(&body, src.Author, false, "left", 18)
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134"/></w:sectPr>` +
		`</w:body></w:document>`

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create docx part %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("write docx part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeParagraph(b *strings.Builder, text string, bold bool, align string, halfPoints int) {
	b.WriteString(`<w:p><w:pPr><w:jc w:val="`)
	b.WriteString(align)
	b.WriteString(`"/></w:pPr><w:r><w:rPr>`)
	if bold {
		b.WriteString(`<w:b/>`)
	}
	fmt.Fprintf(b, `<w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">`, halfPoints)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}
