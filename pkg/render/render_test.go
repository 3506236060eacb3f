package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksFlattensHTML(t *testing.T) {
	blocks := Blocks(`<h1>Ofício</h1><p>Prezado   <b>responsável</b>,</p><script>alert(1)</script><ul><li>um</li><li>dois</li></ul>`)
	require.Len(t, blocks, 4)
	assert.Equal(t, Block{Text: "Ofício", Heading: true}, blocks[0])
	assert.Equal(t, "Prezado responsável ,", blocks[1].Text)
	assert.Equal(t, "um", blocks[2].Text)
	assert.Equal(t, "dois", blocks[3].Text)
}

func TestBlocksAcceptsPlainText(t *testing.T) {
	blocks := Blocks("linha um")
	require.Len(t, blocks, 1)
	assert.Equal(t, "linha um", blocks[0].Text)
}

func sampleSource() Source {
	return Source{
		Title:       "Ofício de convocação",
		Number:      "OF-EEM01/2024-0001",
		SchoolName:  "Escola Estadual Modelo",
		SchoolCode:  "EEM01",
		Author:      "Maria Souza",
		Content:     "<p>Convocamos o responsável & família.</p>",
		GeneratedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPDFRendererProducesPDF(t *testing.T) {
	out, err := NewPDFRenderer().Render(sampleSource())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFRenderer().Render(Source{})
	require.Error(t, err)
}

func TestDOCXRendererProducesPackage(t *testing.T) {
	out, err := NewDOCXRenderer().Render(sampleSource())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	var document string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			raw, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			document = string(raw)
		}
	}
	assert.ElementsMatch(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}, names)
	assert.Contains(t, document, "No. OF-EEM01/2024-0001")
	assert.Contains(t, document, "responsável &amp; família.")
}

func TestCSVUsesSemicolons(t *testing.T) {
	out, err := CSV(Dataset{Headers: []string{"aluno", "severidade"}, Rows: [][]string{{"Ana", "4"}}})
	require.NoError(t, err)
	text := strings.TrimPrefix(string(out), "\ufeff")
	assert.Equal(t, "aluno;severidade\nAna;4\n", text)

	_, err = CSV(Dataset{Headers: []string{"a"}, Rows: [][]string{{"1", "2"}}})
	require.Error(t, err)
}
