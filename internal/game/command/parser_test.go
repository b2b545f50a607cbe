package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("   ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("help")
	assert.Equal(t, "help", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_Lowercase(t *testing.T) {
	result := Parse("DIG 1 2")
	assert.Equal(t, "dig", result.Command)
	assert.Equal(t, []string{"1", "2"}, result.Args)
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  start   3\t 4  ")
	assert.Equal(t, "start", result.Command)
	assert.Equal(t, []string{"3", "4"}, result.Args)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		for _, c := range result.Command {
			if c >= 'A' && c <= 'Z' {
				t.Fatalf("command %q contains uppercase char in Parse result %q", word, result.Command)
			}
		}
	})
}

func TestPropertyParseNonEmptyInputHasCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "word")
		args := rapid.SliceOfN(rapid.StringMatching(`[0-9]{1,3}`), 0, 3).Draw(t, "args")
		line := word
		for _, a := range args {
			line += " " + a
		}
		result := Parse(line)
		if result.Command != word {
			t.Fatalf("input %q produced command %q", line, result.Command)
		}
		if len(result.Args) != len(args) {
			t.Fatalf("input %q produced %d args, want %d", line, len(result.Args), len(args))
		}
	})
}
