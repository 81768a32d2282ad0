package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// Extraction 是从 PDF 容器中读取到的原始内容。
type Extraction struct {
	Text     string
	Pages    int
	Tables   []model.Table
	Metadata map[string]any
}

// 元数据键与 Info 字典键的对应关系。
var metadataKeys = []struct{ out, key string }{
	{"title", "Title"},
	{"author", "Author"},
	{"subject", "Subject"},
	{"creator", "Creator"},
	{"producer", "Producer"},
	{"creation_date", "CreationDate"},
}

// ReadPDF 打开 PDF 容器，逐页抽取文本和表格。
// 容器无法解析时返回 ErrExtractionFailure，单页失败只跳过该页。
func ReadPDF(data []byte) (out *Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrExtractionFailure, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}

	out = &Extraction{
		Pages:    reader.NumPage(),
		Tables:   []model.Table{},
		Metadata: readMetadata(reader),
	}

	var texts []string
	for i := 1; i <= out.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if text := pageText(page, i); strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
		for _, cells := range detectTables(pageRows(page, i)) {
			out.Tables = append(out.Tables, model.Table{
				Page: i,
				Data: cells,
				Rows: len(cells),
				Cols: len(cells[0]),
			})
		}
	}
	out.Text = strings.Join(texts, "\n\n")
	return out, nil
}

func readMetadata(reader *pdf.Reader) map[string]any {
	meta := make(map[string]any, len(metadataKeys))
	info := reader.Trailer().Key("Info")
	for _, k := range metadataKeys {
		meta[k.out] = ""
		if !info.IsNull() {
			meta[k.out] = info.Key(k.key).Text()
		}
	}
	return meta
}

func pageText(page pdf.Page, num int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[PDF] 第 %d 页文本抽取异常: %v", num, r)
			text = ""
		}
	}()
	text, err := page.GetPlainText(nil)
	if err != nil {
		log.Warnf("[PDF] 第 %d 页文本抽取失败: %v", num, err)
		return ""
	}
	return text
}

func pageRows(page pdf.Page, num int) (rows []textRow) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[PDF] 第 %d 页版面读取异常: %v", num, r)
			rows = nil
		}
	}()
	pdfRows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}
	for _, r := range pdfRows {
		row := textRow{}
		for _, t := range r.Content {
			row.runs = append(row.runs, textRun{X: t.X, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		rows = append(rows, row)
	}
	return rows
}

// textRun 是同一行中的一段定位文本。
type textRun struct {
	X, W     float64
	FontSize float64
	S        string
}

type textRow struct {
	runs []textRun
}

// minColumnGap 是判定两段文本属于不同单元格的最小水平间距。
const minColumnGap = 12.0

// cells 将一行文本按水平间距切分为单元格。
func (r textRow) cells() []string {
	runs := make([]textRun, len(r.runs))
	copy(runs, r.runs)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var cells []string
	var cur strings.Builder
	end := 0.0
	for i, run := range runs {
		gap := minColumnGap
		if run.FontSize*1.5 > gap {
			gap = run.FontSize * 1.5
		}
		if i > 0 && run.X-end > gap {
			if s := strings.TrimSpace(cur.String()); s != "" {
				cells = append(cells, s)
			}
			cur.Reset()
		}
		cur.WriteString(run.S)
		if e := run.X + run.W; e > end || i == 0 {
			end = e
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}

// detectTables 把连续两行以上、单元格数相同且不少于两列的行识别为一张表格。
func detectTables(rows []textRow) [][][]string {
	var tables [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}
	for _, row := range rows {
		cells := row.cells()
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(current) > 0 && len(current[0]) != len(cells) {
			flush()
		}
		current = append(current, cells)
	}
	flush()
	return tables
}
