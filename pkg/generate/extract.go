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
package generate

import (
	"strings"
)

// sqlLeadKeywords are the verbs a statement can start with. Extraction
// only needs the lead word; the validator judges everything after it.
var sqlLeadKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "INSERT": true, "UPDATE": true,
	"DELETE": true, "CREATE": true, "DROP": true, "ALTER": true,
	"EXPLAIN": true,
}

type fencedBlock struct {
	lang string
	body string
}

// ExtractSQL pulls the candidate statement out of a model response.
// Preference order: the first ```sql fenced block, then the first fenced
// block whose content starts with a SQL keyword, then the first bare text
// run starting with a SQL keyword, cut at the first semicolon or blank
// line. Returns "" when nothing qualifies.
func ExtractSQL(text string) string {
	blocks := fencedBlocks(text)

	for _, b := range blocks {
		if strings.EqualFold(b.lang, "sql") && strings.TrimSpace(b.body) != "" {
			return strings.TrimSpace(b.body)
		}
	}
	for _, b := range blocks {
		body := strings.TrimSpace(b.body)
		if startsWithSQLKeyword(body) {
			return body
		}
	}
	return bareStatement(text)
}

// fencedBlocks parses ``` fenced blocks line by line. Unterminated fences
// run to the end of the text.
func fencedBlocks(text string) []fencedBlock {
	var blocks []fencedBlock
	var body []string
	lang := ""
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, fencedBlock{lang: lang, body: strings.Join(body, "\n")})
				body = nil
				inBlock = false
				continue
			}
			inBlock = true
			lang = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	if inBlock {
		blocks = append(blocks, fencedBlock{lang: lang, body: strings.Join(body, "\n")})
	}
	return blocks
}

// bareStatement scans unfenced text for the first run of lines starting
// with a SQL keyword, ending at a semicolon, a blank line, or the end.
func bareStatement(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !startsWithSQLKeyword(strings.TrimSpace(line)) {
			continue
		}
		var out []string
		for j := i; j < len(lines); j++ {
			current := lines[j]
			if strings.TrimSpace(current) == "" {
				break
			}
			if idx := strings.Index(current, ";"); idx >= 0 {
				out = append(out, current[:idx+1])
				return strings.TrimSpace(strings.Join(out, "\n"))
			}
			out = append(out, current)
		}
		return strings.TrimSpace(strings.Join(out, "\n"))
	}
	return ""
}

func startsWithSQLKeyword(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	return sqlLeadKeywords[strings.ToUpper(fields[0])]
}
