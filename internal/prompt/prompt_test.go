package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleKeepsPickingOrder(t *testing.T) {
	var picked []int
	picked = toggle(picked, 2)
	picked = toggle(picked, 0)
	picked = toggle(picked, 1)
	assert.Equal(t, []int{2, 0, 1}, picked)

	picked = toggle(picked, 0)
	assert.Equal(t, []int{2, 1}, picked)

	picked = toggle(picked, 0)
	assert.Equal(t, []int{2, 1, 0}, picked)
}

func TestToggleDoesNotAliasInput(t *testing.T) {
	original := []int{1, 2, 3}
	_ = toggle(original, 1)
	assert.Equal(t, []int{1, 2, 3}, original)
}

func TestRenderItems(t *testing.T) {
	rendered := renderItems([]string{"[Create] NEW -> dg-a001", "[Delete] dg-b001 -> DELETE"}, []int{1})
	assert.Equal(t, []string{
		"[ ] [Create] NEW -> dg-a001",
		"[x] [Delete] dg-b001 -> DELETE",
		"Done",
	}, rendered)
}
