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
package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/quill/pkg/executor"
	"github.com/teradata-labs/quill/pkg/types"
)

type fakeProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeProvider) Complete(_ context.Context, req types.CompletionRequest) (string, error) {
	f.lastPrompt = req.Prompt
	return f.response, f.err
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func sampleResult() *executor.Result {
	return &executor.Result{
		Columns: []string{"composer", "n"},
		Rows: [][]interface{}{
			{"Bach", int64(12)},
			{[]byte("Mozart"), int64(9)},
			{nil, int64(3)},
		},
	}
}

func TestExplainIncludesContext(t *testing.T) {
	p := &fakeProvider{response: "Bach wrote the most tracks, 12 in total."}
	e := New(p)

	out, err := e.Explain(context.Background(), "who composed the most tracks?",
		"SELECT composer, count(*) AS n FROM tracks GROUP BY composer", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "Bach wrote the most tracks, 12 in total.", out)

	assert.Contains(t, p.lastPrompt, "who composed the most tracks?")
	assert.Contains(t, p.lastPrompt, "GROUP BY composer")
	assert.Contains(t, p.lastPrompt, "composer, n")
	assert.Contains(t, p.lastPrompt, "Bach")
	assert.Contains(t, p.lastPrompt, "Mozart")
	assert.Contains(t, p.lastPrompt, "NULL")
	assert.Contains(t, p.lastPrompt, "Rows returned: 3")
}

func TestExplainBoundsRowSample(t *testing.T) {
	res := &executor.Result{Columns: []string{"n"}}
	for i := 0; i < 50; i++ {
		res.Rows = append(res.Rows, []interface{}{int64(i)})
	}

	p := &fakeProvider{response: "There are many rows."}
	e := New(p, WithSampleRows(5))

	_, err := e.Explain(context.Background(), "how many?", "SELECT n FROM t", res)
	require.NoError(t, err)
	assert.Contains(t, p.lastPrompt, "First 5 rows:")
	assert.Contains(t, p.lastPrompt, "45 more rows not shown")
	assert.NotContains(t, p.lastPrompt, "(49)")
}

func TestExplainTruncationNoted(t *testing.T) {
	res := sampleResult()
	res.Truncated = true
	p := &fakeProvider{response: "ok"}
	e := New(p)

	_, err := e.Explain(context.Background(), "q", "SELECT 1", res)
	require.NoError(t, err)
	assert.Contains(t, p.lastPrompt, "truncated by the row limit")
}

func TestExplainLongCellsTruncated(t *testing.T) {
	res := &executor.Result{
		Columns: []string{"blob"},
		Rows:    [][]interface{}{{strings.Repeat("x", 500)}},
	}
	p := &fakeProvider{response: "ok"}
	e := New(p)

	_, err := e.Explain(context.Background(), "q", "SELECT blob FROM t", res)
	require.NoError(t, err)
	assert.NotContains(t, p.lastPrompt, strings.Repeat("x", 200))
	assert.Contains(t, p.lastPrompt, "...")
}

func TestExplainProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("api down")}
	e := New(p)

	_, err := e.Explain(context.Background(), "q", "SELECT 1", sampleResult())
	require.Error(t, err)
	assert.Equal(t, types.KindExplanationFailed, types.KindOf(err))
}

func TestExplainEmptyResponseFails(t *testing.T) {
	p := &fakeProvider{response: "   "}
	e := New(p)

	_, err := e.Explain(context.Background(), "q", "SELECT 1", sampleResult())
	require.Error(t, err)
	assert.Equal(t, types.KindExplanationFailed, types.KindOf(err))
}

func TestExplainCancelledKeepsKind(t *testing.T) {
	p := &fakeProvider{err: context.Canceled}
	e := New(p)

	_, err := e.Explain(context.Background(), "q", "SELECT 1", sampleResult())
	require.Error(t, err)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
}
