package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btns(labels ...string) []InlineBtn {
	out := make([]InlineBtn, len(labels))
	for i, l := range labels {
		out[i] = InlineBtn{Text: l, Data: "time:" + l}
	}
	return out
}

func TestInlineButtonsNPerRow(t *testing.T) {
	menu := []InlineBtn{{Text: "Menu", Data: "menu"}}
	kb := InlineButtonsNPerRow(btns("10:00", "11:00", "12:00", "13:00"), 3, menu)

	require.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[0], 3)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, "time:13:00", kb.InlineKeyboard[1][0].Data)
	assert.Equal(t, "menu", kb.InlineKeyboard[2][0].Data)
}

func TestInlineButtonsOnePerRow(t *testing.T) {
	kb := InlineButtons(btns("a", "b"))
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "a", kb.InlineKeyboard[0][0].Text)
	assert.Empty(t, kb.InlineKeyboard[0][0].Unique)
}

func TestInlineButtonsRowsSkipsEmpty(t *testing.T) {
	kb := InlineButtonsRows(nil, btns("x"))
	require.Len(t, kb.InlineKeyboard, 1)
}

func TestChunkNonPositive(t *testing.T) {
	assert.Len(t, Chunk(btns("a", "b", "c"), 0), 3)
	assert.Empty(t, Chunk(nil, 3))
}
