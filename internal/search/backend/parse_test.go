package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutput_BasicLines(t *testing.T) {
	output := "/base/src/a.go:12:func main() {\n/base/src/b.go:3:// todo\n"
	result := parseOutput(output, "/base")

	assert.Equal(t, []Match{{Line: 12, Content: "func main() {"}}, result["src/a.go"])
	assert.Equal(t, []Match{{Line: 3, Content: "// todo"}}, result["src/b.go"])
}

func TestParseOutput_ContentContainingColons(t *testing.T) {
	output := "/base/a.go:5:x := map[string]int{\"a\": 1}\n"
	result := parseOutput(output, "/base")
	assert.Equal(t, "x := map[string]int{\"a\": 1}", result["a.go"][0].Content)
}

func TestParseOutput_SkipsMalformedLines(t *testing.T) {
	output := "not a valid line\n\n/base/a.go:7:ok\n"
	result := parseOutput(output, "/base")
	assert.Len(t, result, 1)
	assert.Equal(t, 7, result["a.go"][0].Line)
}

func TestParseOutput_WindowsDriveLetterPath(t *testing.T) {
	output := `C:\base\src\a.go:9:package main` + "\n"
	result := parseOutput(output, `C:\base`)
	assert.Contains(t, result, "src/a.go")
	assert.Equal(t, 9, result["src/a.go"][0].Line)
}

func TestParseOutput_EmptyOutputYieldsEmptyResult(t *testing.T) {
	result := parseOutput("", "/base")
	assert.Empty(t, result)
}
