package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelta(t *testing.T) {
	assert.Contains(t, Delta(5, 8), "5 → ")
	assert.Contains(t, Delta(5, 8), "8")
	assert.Contains(t, Delta(8, 5), "5")
	assert.NotContains(t, Delta(3, 3), "→")
}

func TestLabelValue(t *testing.T) {
	assert.Contains(t, LabelValue("HP", 12), "12")
	assert.Contains(t, LabelValue("HP", 12), "HP:")
}
