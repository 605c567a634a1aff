package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Headers: []string{"student_number", "full_name", "content"},
		Rows: []map[string]string{
			{"student_number": "10203", "full_name": "김철수", "content": "수업 태도가 성실함"},
			{"student_number": "10204", "full_name": "이영희", "content": "탐구 활동에 적극적임"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	data, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "student_number,full_name,content")
	assert.Contains(t, string(data), "김철수")
}

func TestFlattenStripsMathDelimiters(t *testing.T) {
	assert.Equal(t, "이차방정식 x^2+1 을 풀 수 있음", Flatten("이차방정식 $x^2+1$ 을 풀 수 있음"))
	assert.Equal(t, "정리: \\frac{a}{b} 증명함", Flatten("정리: $$\\frac{a}{b}$$ 증명함"))
	assert.Equal(t, "수식 없는 내용", Flatten("수식 없는 내용"))
	// A dangling delimiter is plain text and survives untouched.
	assert.Equal(t, "가격은 $100", Flatten("가격은 $100"))
}

func TestCSVExporterFlattensMath(t *testing.T) {
	table := Table{
		Headers: []string{"content"},
		Rows:    []map[string]string{{"content": "함수 $f(x)=2x$ 의 그래프를 그림"}},
	}
	data, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), "함수 f(x)=2x 의 그래프를 그림")
	assert.NotContains(t, string(data), "$f(x)=2x$")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestXLSXExporterRoundTrip(t *testing.T) {
	table := sampleTable()
	data, err := NewXLSXExporter().Render(table, "records")
	require.NoError(t, err)

	parsed, err := ReadSheet(data)
	require.NoError(t, err)
	assert.Equal(t, table.Headers, parsed.Headers)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "김철수", parsed.Rows[0]["full_name"])
	assert.Equal(t, "탐구 활동에 적극적임", parsed.Rows[1]["content"])
}

func TestReadSheetSkipsEmptyRows(t *testing.T) {
	table := Table{
		Headers: []string{"a", "b"},
		Rows: []map[string]string{
			{"a": "1", "b": "2"},
			{"a": "", "b": ""},
			{"a": "3", "b": ""},
		},
	}
	data, err := NewXLSXExporter().Render(table, "test")
	require.NoError(t, err)

	parsed, err := ReadSheet(data)
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "3", parsed.Rows[1]["a"])
}

func TestPDFExporterRender(t *testing.T) {
	data, err := NewPDFExporter().Render(sampleTable(), "records")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
