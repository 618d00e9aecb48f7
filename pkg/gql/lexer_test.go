package gql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokenizesBasicMatch(t *testing.T) {
	toks, err := NewLexer("", `MATCH (n:Person)-[:KNOWS]->(m) WHERE n.age > 21 RETURN n.name`).Tokenize()
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, "MATCH", toks[0].Text)
	assert.Equal(t, EOF, toks[len(toks)-1].Kind)
}

func TestLexerStringEscapes(t *testing.T) {
	toks, err := NewLexer("", `"a\nb\"c"`).Tokenize()
	require.NoError(t, err)
	require.Equal(t, String, toks[0].Kind)
	assert.Equal(t, "a\nb\"c", toks[0].Text)
}

func TestLexerNumberForms(t *testing.T) {
	toks, err := NewLexer("", `1 2.5 3e2 4.2e-1`).Tokenize()
	require.NoError(t, err)
	var nums []string
	for _, tok := range toks {
		if tok.Kind == Number {
			nums = append(nums, tok.Text)
		}
	}
	assert.Equal(t, []string{"1", "2.5", "3e2", "4.2e-1"}, nums)
}

func TestLexerParameterAndArrows(t *testing.T) {
	toks, err := NewLexer("", `(a)-[r]->(b)<-[r2]-(c) $x`).Tokenize()
	require.NoError(t, err)
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, Arrow)
	assert.Contains(t, kinds, BackArrow)
	assert.Contains(t, kinds, Parameter)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	_, err := NewLexer("", `"unterminated`).Tokenize()
	require.Error(t, err)
}

func TestLexerUnterminatedBlockCommentErrors(t *testing.T) {
	_, err := NewLexer("", `MATCH (n) /* oops`).Tokenize()
	require.Error(t, err)
}

func TestLexerSkipsLineAndBlockComments(t *testing.T) {
	toks, err := NewLexer("", "MATCH (n) // trailing\n/* block */ RETURN n").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "MATCH", toks[0].Text)
}
