package gtkui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFontStyles(t *testing.T) {
	assert.Empty(t, fontStyles("", 0))
	assert.Empty(t, fontStyles("", -3))
	assert.Equal(t, "#preview {\n    font-size: 14px;\n}\n", fontStyles("", 14))
	assert.Equal(t,
		"#preview {\n    font-family: \"Fira Sans\";\n    font-size: 16px;\n}\n",
		fontStyles("Fira Sans", 16))
}

func TestIsAltKey(t *testing.T) {
	assert.True(t, isAltKey(0xffe9))
	assert.True(t, isAltKey(0xffea))
	assert.False(t, isAltKey('a'))
}

func TestWelcomeDocumentEmbedded(t *testing.T) {
	assert.Contains(t, string(welcomeDoc), "# Shiba")
}
