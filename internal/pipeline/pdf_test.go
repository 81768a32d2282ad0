package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildPDF 生成一个最小的 PDF：每页一行文本，可选 Info 标题。
func buildPDF(pages []string, title string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	const firstPage = 5
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj(fmt.Sprintf("<< /Title (%s) /Author (Sekretariat) >>", title))
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", firstPage+2*i+1))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func pageTexts(n int) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("Halaman %d laporan kegiatan HIPMI", i+1)
	}
	return pages
}

func TestReadPDFFiftyPages(t *testing.T) {
	out, err := ReadPDF(buildPDF(pageTexts(50), "Laporan Kegiatan"))
	require.NoError(t, err)
	require.Equal(t, 50, out.Pages)
	require.Contains(t, out.Text, "Halaman 1 laporan")
	require.Contains(t, out.Text, "Halaman 50 laporan")
	require.Less(t, strings.Index(out.Text, "Halaman 1 laporan"), strings.Index(out.Text, "Halaman 50 laporan"))
	require.Equal(t, "Laporan Kegiatan", out.Metadata["title"])
	require.Equal(t, "Sekretariat", out.Metadata["author"])
	require.Equal(t, "", out.Metadata["producer"])
	require.Len(t, out.Metadata, 6)
	require.NotNil(t, out.Tables)
}

func TestReadPDFRejectsBrokenContainer(t *testing.T) {
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2000)...)
	_, err := ReadPDF(data)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrExtractionFailure))
}
