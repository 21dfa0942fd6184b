// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTexts(t *testing.T, sql string) []string {
	t.Helper()
	tokens, err := Tokenize(sql)
	require.NoError(t, err)
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return texts
}

func TestTokenizeBasicSelect(t *testing.T) {
	texts := tokenTexts(t, "SELECT id, name FROM users WHERE id = 42")
	assert.Equal(t, []string{"SELECT", "id", ",", "name", "FROM", "users", "WHERE", "id", "=", "42"}, texts)
}

func TestTokenizeStringLiteralIsOneToken(t *testing.T) {
	tokens, err := Tokenize("SELECT * FROM t WHERE note = 'DROP TABLE users; --'")
	require.NoError(t, err)

	var strs []Token
	for _, tok := range tokens {
		if tok.Type == TokenString {
			strs = append(strs, tok)
		}
	}
	require.Len(t, strs, 1)
	assert.Equal(t, "DROP TABLE users; --", strs[0].Text)

	// The literal's contents never surface as keywords.
	for _, tok := range tokens {
		assert.False(t, tok.IsKeyword("DROP"))
	}
}

func TestTokenizeEscapedQuoteInString(t *testing.T) {
	tokens, err := Tokenize("SELECT 'O''Brien'")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[1].Type)
	assert.Equal(t, "O'Brien", tokens[1].Text)
}

func TestTokenizeCommentsStripped(t *testing.T) {
	texts := tokenTexts(t, "SELECT a -- DELETE FROM t\nFROM t /* DROP TABLE t */ WHERE a > 1")
	assert.Equal(t, []string{"SELECT", "a", "FROM", "t", "WHERE", "a", ">", "1"}, texts)
}

func TestTokenizeUnterminatedConstructs(t *testing.T) {
	_, err := Tokenize("SELECT 'unclosed")
	assert.Error(t, err)

	_, err = Tokenize("SELECT a /* unclosed")
	assert.Error(t, err)

	_, err = Tokenize(`SELECT "unclosed`)
	assert.Error(t, err)
}

func TestTokenizeQuotedIdentifiers(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{`SELECT "order" FROM t`, "order"},
		{"SELECT `order` FROM t", "order"},
		{"SELECT [order] FROM t", "order"},
	}
	for _, tc := range cases {
		tokens, err := Tokenize(tc.sql)
		require.NoError(t, err, tc.sql)
		require.Greater(t, len(tokens), 1)
		assert.Equal(t, tc.want, tokens[1].Text)
		assert.True(t, tokens[1].Quoted)
		// Quoted identifiers never match keywords.
		assert.False(t, tokens[1].IsKeyword("ORDER"))
	}
}

func TestTokenizeMultiRuneOperators(t *testing.T) {
	texts := tokenTexts(t, "SELECT a || b FROM t WHERE a <> 1 AND b >= 2 AND c::text != 'x'")
	assert.Contains(t, texts, "||")
	assert.Contains(t, texts, "<>")
	assert.Contains(t, texts, ">=")
	assert.Contains(t, texts, "::")
	assert.Contains(t, texts, "!=")
}

func TestTokenizeKeywordFoldsCase(t *testing.T) {
	tokens, err := Tokenize("select 1")
	require.NoError(t, err)
	assert.True(t, tokens[0].IsKeyword("SELECT"))
}
