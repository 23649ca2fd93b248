package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("短文本", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "短文本", chunks[0])
}

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("", 1000, 100))
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := SplitText(text, 10, 3)

	// step=7：起点 0,7,14,21
	require.Len(t, chunks, 4)
	assert.Equal(t, 10, len(chunks[0]))
	// 相邻块共享 overlap 长度的尾部/头部
	assert.Equal(t, chunks[0][7:], chunks[1][:3])
	assert.Equal(t, 4, len(chunks[3]))

	// 重建去重后的全文
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		b.WriteString(c[3:])
	}
	assert.Equal(t, text, b.String())
}

func TestSplitTextHandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("中", 15)
	chunks := SplitText(text, 10, 2)

	// 按 rune 切分，不应截断 UTF-8 编码
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "中"))
		assert.Equal(t, 0, len([]byte(c))%3)
	}
}

func TestSplitTextDegeneratesWhenOverlapTooLarge(t *testing.T) {
	text := strings.Repeat("b", 20)
	// overlap >= size 时退化为无重叠切分，避免死循环
	chunks := SplitText(text, 5, 5)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.Equal(t, 5, len(c))
	}
}
