package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Headers: []string{"Lớp", "Ngày", "Giáo viên"},
		Rows: []map[string]string{
			{"Lớp": "IELTS HP3", "Ngày": "2025-03-10", "Giáo viên": "Nguyễn Văn A"},
		},
		Widths: []float64{2, 1, 2},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)
	text := strings.TrimPrefix(string(out), "\ufeff")
	assert.Equal(t, "Lớp,Ngày,Giáo viên\nIELTS HP3,2025-03-10,Nguyễn Văn A\n", text)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVNeutralisesFormulas(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter().Write(&buf, Dataset{
		Headers: []string{"Lý do", "Ghi chú"},
		Rows:    []map[string]string{{"Lý do": "=HYPERLINK(\"x\")", "Ghi chú": "-"}},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimPrefix(buf.String(), "\ufeff"), "\n")
	assert.Equal(t, `"'=HYPERLINK(""x"")",'-`, lines[1])
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sample(), "Lịch học bù")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sample())
	require.Len(t, widths, 3)
	assert.InDelta(t, pageWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[0], widths[1]*2, 0.001)
}
