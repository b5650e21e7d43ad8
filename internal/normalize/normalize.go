// Package normalize merges parser fragments into a single canonical schema
// model. Merging is deterministic: tables and columns keep the order of first
// appearance across the fragment list, and conflicting metadata resolves to
// the highest-confidence candidate.
package normalize

import (
	"strings"
	"unicode"

	"github.com/schemasmith/schemasmith/internal/model"
)

// similarityThreshold is the minimum name-similarity ratio at which two
// differently-keyed tables are even considered the same entity.
const similarityThreshold = 0.85

// MergePolicy decides whether two tables whose names are similar but not
// identical should be merged. The zero value never merges, which keeps the
// pipeline safe for unattended runs.
type MergePolicy struct {
	// ConfirmMerge is consulted for near-matches (similarity above the
	// threshold but keys not equal). Nil means "do not merge".
	ConfirmMerge func(a, b string) bool
}

// Normalize folds the fragments into one SchemaModel. It never fails: every
// problem it finds is reported as a Diagnostic and resolved by a documented
// rule so the pipeline can keep moving.
func Normalize(fragments []*model.Fragment, policy MergePolicy) (*model.SchemaModel, []model.Diagnostic) {
	out := &model.SchemaModel{}
	var diags []model.Diagnostic

	// byKey maps normalized table keys to an index in out.Tables.
	byKey := map[string]int{}

	for _, frag := range fragments {
		if frag == nil {
			continue
		}
		if out.Name == "" {
			out.Name = frag.SchemaName
		}
		for _, t := range frag.Tables {
			key := nameKey(t.Name)
			idx, ok := byKey[key]
			if !ok {
				if near, found := nearestKey(byKey, key); found {
					if policy.ConfirmMerge != nil && policy.ConfirmMerge(out.Tables[byKey[near]].Name, t.Name) {
						idx, ok = byKey[near], true
					} else {
						diags = append(diags, model.Warnf(model.Location{Table: t.Name},
							model.CodeAmbiguousMerge,
							"table %q resembles existing table %q but was kept separate; merge manually if they are the same entity",
							t.Name, out.Tables[byKey[near]].Name))
					}
				}
			}
			if !ok {
				out.Tables = append(out.Tables, t)
				byKey[key] = len(out.Tables) - 1
				continue
			}
			diags = append(diags, mergeTable(&out.Tables[idx], t)...)
		}
		out.PendingRelationships = append(out.PendingRelationships, frag.Relationships...)
	}

	out.PendingRelationships = dedupeRelationships(out.PendingRelationships)
	return out, diags
}

// mergeTable folds src into dst, which already represents the same entity.
func mergeTable(dst *model.Table, src model.Table) []model.Diagnostic {
	var diags []model.Diagnostic

	for _, col := range src.Columns {
		existing := dst.Column(col.Name)
		if existing == nil {
			dst.Columns = append(dst.Columns, col)
			continue
		}
		if existing.Type.Equal(col.Type) {
			// Same shape: keep the richer metadata regardless of source.
			mergeColumnMeta(existing, col)
			continue
		}
		loser := col
		if col.Provenance.Confidence > existing.Provenance.Confidence {
			loser = *existing
			*existing = col
		}
		diags = append(diags, model.Warnf(model.Location{Table: dst.Name, Column: existing.Name},
			model.CodeMergeConflict,
			"column %q has conflicting types %s (confidence %d%%) and %s (confidence %d%%); kept the higher-confidence definition",
			existing.Name,
			model.TypeString(existing.Type), existing.Provenance.Confidence,
			model.TypeString(loser.Type), loser.Provenance.Confidence))
	}

	for _, fk := range src.ForeignKeys {
		if !hasForeignKey(dst.ForeignKeys, fk) {
			dst.ForeignKeys = append(dst.ForeignKeys, fk)
		}
	}
	for _, idx := range src.Indexes {
		if !hasIndex(dst.Indexes, idx) {
			dst.Indexes = append(dst.Indexes, idx)
		}
	}
	if dst.Comment == nil {
		dst.Comment = src.Comment
	}
	return diags
}

// mergeColumnMeta copies supplementary facts from src onto dst when dst lacks
// them. Constraint flags only ever tighten.
func mergeColumnMeta(dst *model.Column, src model.Column) {
	if src.IsPrimaryKey {
		dst.IsPrimaryKey = true
	}
	if src.IsUnique {
		dst.IsUnique = true
	}
	if src.AutoIncrement {
		dst.AutoIncrement = true
	}
	if !src.Nullable {
		dst.Nullable = false
	}
	if dst.DefaultValue == nil {
		dst.DefaultValue = src.DefaultValue
	}
	if dst.Comment == nil {
		dst.Comment = src.Comment
	}
	if src.Provenance.Confidence > dst.Provenance.Confidence {
		dst.Provenance = src.Provenance
	}
}

func hasForeignKey(fks []model.ForeignKey, fk model.ForeignKey) bool {
	for _, f := range fks {
		if strings.EqualFold(f.TargetTable, fk.TargetTable) &&
			equalFoldSlices(f.SourceColumns, fk.SourceColumns) &&
			equalFoldSlices(f.TargetColumns, fk.TargetColumns) {
			return true
		}
	}
	return false
}

func hasIndex(indexes []model.Index, idx model.Index) bool {
	for _, i := range indexes {
		if equalFoldSlices(i.Columns, idx.Columns) {
			return true
		}
	}
	return false
}

func equalFoldSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func dedupeRelationships(rels []model.Relationship) []model.Relationship {
	var out []model.Relationship
	seen := map[string]bool{}
	for _, r := range rels {
		key := nameKey(r.SourceTable) + "|" + nameKey(r.TargetTable) + "|" + string(r.Cardinality)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// nameKey folds a table name for identity comparison: lower-cased with every
// non-alphanumeric rune removed, so "UserAccounts", "user_accounts" and
// "user accounts" all collide.
func nameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nearestKey returns the existing key most similar to key, if any key clears
// the similarity threshold.
func nearestKey(byKey map[string]int, key string) (string, bool) {
	best, bestRatio := "", 0.0
	for k := range byKey {
		if r := similarity(k, key); r >= similarityThreshold && r > bestRatio {
			best, bestRatio = k, r
		}
	}
	return best, best != ""
}

// similarity is 1 - levenshtein/maxlen, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
