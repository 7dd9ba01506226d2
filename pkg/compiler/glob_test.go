package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tombrisland/r4/pkg/types"
)

func TestCompileGlob_EndsWith(t *testing.T) {
	g := compileGlob("*.png", false)
	assert.Equal(t, types.GlobEndsWith, g.GlobType)
	assert.Equal(t, ".png", g.Pattern)
}

func TestCompileGlob_StartsWith(t *testing.T) {
	g := compileGlob("README*", false)
	assert.Equal(t, types.GlobStartsWith, g.GlobType)
	assert.Equal(t, "README", g.Pattern)
}

func TestCompileGlob_Contains(t *testing.T) {
	g := compileGlob("*cache*", false)
	assert.Equal(t, types.GlobContains, g.GlobType)
	assert.Equal(t, "cache", g.Pattern)
}

func TestCompileGlob_Exact(t *testing.T) {
	g := compileGlob("Makefile", false)
	assert.Equal(t, types.GlobStartsWith, g.GlobType)
	assert.Equal(t, "Makefile", g.Pattern)
}

func TestCompileGlob_Regex(t *testing.T) {
	g := compileGlob(`.*\.tar\.(gz|bz2)$`, true)
	assert.Equal(t, types.GlobRegex, g.GlobType)
	assert.Equal(t, `.*\.tar\.(gz|bz2)$`, g.Pattern)
}
