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
package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/quill/pkg/schema"
	"github.com/teradata-labs/quill/pkg/types"
)

func testSchema() *schema.Descriptor {
	return &schema.Descriptor{
		Dialect: schema.DialectSQLite,
		Tables: []schema.Table{
			{
				Name: "albums",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", Key: true},
					{Name: "title", Type: "TEXT"},
					{Name: "artist_id", Type: "INTEGER"},
				},
				SampleRows: [][]string{{"1", "For Those About To Rock", "1"}},
			},
			{
				Name: "tracks",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", Key: true},
					{Name: "name", Type: "TEXT"},
					{Name: "composer", Type: "TEXT", Nullable: true},
					{Name: "album_id", Type: "INTEGER"},
				},
				SampleRows: [][]string{
					{"1", "Breaking The Law", "Halford", "3"},
					{"2", "Aria", "NULL", "4"},
					{"3", "Fugue", "Bach", "4"},
					{"4", "Prelude", "Bach", "4"},
				},
			},
		},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := Builder{}
	p1, err := b.Build(testSchema(), "how many tracks are there?", nil)
	require.NoError(t, err)
	p2, err := b.Build(testSchema(), "how many tracks are there?", nil)
	require.NoError(t, err)
	assert.Equal(t, p1.Text, p2.Text)
	assert.Equal(t, p1.Tokens, p2.Tokens)
}

func TestBuildContainsSchemaAndQuestion(t *testing.T) {
	b := Builder{}
	p, err := b.Build(testSchema(), "which composer wrote the most tracks?", nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "TABLE albums (")
	assert.Contains(t, p.Text, "TABLE tracks (")
	assert.Contains(t, p.Text, "composer TEXT")
	assert.Contains(t, p.Text, "Question: which composer wrote the most tracks?")
	assert.Contains(t, p.Text, "SQLite")
	assert.Positive(t, p.Tokens)
}

func TestBuildCapsSampleRows(t *testing.T) {
	b := Builder{SampleRowLimit: 2}
	p, err := b.Build(testSchema(), "list track names", nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Breaking The Law")
	assert.Contains(t, p.Text, "Aria")
	assert.NotContains(t, p.Text, "Prelude")
}

func TestBuildRetryContextRendered(t *testing.T) {
	b := Builder{}
	prior := &RetryContext{
		SQL:    "SELECT genre FROM tracks",
		Kind:   types.KindUnknownIdentifier,
		Detail: `unknown column "genre" in table "tracks"`,
	}
	p, err := b.Build(testSchema(), "list genres", prior)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "previous attempt failed")
	assert.Contains(t, p.Text, "SELECT genre FROM tracks")
	assert.Contains(t, p.Text, "unknown_identifier")
	assert.Contains(t, p.Text, `unknown column "genre"`)
}

func TestBuildTruncatesToRelevantTables(t *testing.T) {
	b := Builder{MaxPromptTokens: 120}
	p, err := b.Build(testSchema(), "who composed the most tracks?", nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "TABLE tracks (")
	assert.NotContains(t, p.Text, "TABLE albums (")
	assert.Contains(t, p.Text, "tables omitted for space")
	assert.Contains(t, p.Text, "albums")
}

func TestBuildKeepsAtLeastOneTable(t *testing.T) {
	b := Builder{MaxPromptTokens: 1}
	p, err := b.Build(testSchema(), "how many tracks?", nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "TABLE ")
	assert.Contains(t, p.Text, "tables omitted for space")
}

func TestBuildTruncationFollowsQuestion(t *testing.T) {
	b := Builder{MaxPromptTokens: 120}
	p, err := b.Build(testSchema(), "how many albums do we have?", nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "TABLE albums (")
	assert.NotContains(t, p.Text, "TABLE tracks (")
}

func TestBuildRejectsBadInputs(t *testing.T) {
	b := Builder{}
	_, err := b.Build(nil, "question", nil)
	assert.Error(t, err)

	_, err = b.Build(testSchema(), "   ", nil)
	assert.Error(t, err)
}

func TestBuildOmissionMarkerListsNames(t *testing.T) {
	b := Builder{MaxPromptTokens: 120}
	p, err := b.Build(testSchema(), "who composed the most tracks?", nil)
	require.NoError(t, err)
	idx := strings.Index(p.Text, "omitted for space")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, p.Text[idx:], "albums")
}
