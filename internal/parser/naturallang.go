package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/schemasmith/schemasmith/internal/inflect"
	"github.com/schemasmith/schemasmith/internal/model"
)

// TextParser extracts candidate tables, columns, and relationships from
// free-form natural-language descriptions using lexical pattern rules only,
// no grammar parsing. Every extracted fact carries confidence at most 70 and a
// Suggestion diagnostic so callers know to put it in front of the user.
type TextParser struct{}

const (
	nlRelationConfidence = 65
	nlEntityConfidence   = 60
	nlColumnConfidence   = 55
)

var (
	// "a customer can have many orders" / "the library contains books"
	nlHasManyRe = regexp.MustCompile(`(?:a|an|the|each|every)?\s*(\w+)\s+(?:can\s+|may\s+|should\s+)?(?:has|have|contains?|owns?|includes?)\s+(?:many|multiple|several|any\s+number\s+of)\s+(\w+)`)

	// "an order belongs to a customer". The trailing article needs its own
	// whitespace, otherwise "an" is consumed as "a" plus a one-letter noun.
	nlBelongsToRe = regexp.MustCompile(`(?:a|an|the|each|every)?\s*(\w+)\s+belongs?\s+to\s+(?:(?:a|an|the|one)\s+)?(\w+)`)

	// "students and courses have a many-to-many relationship"
	nlManyToManyRe = regexp.MustCompile(`(\w+)\s+and\s+(\w+)\s+(?:have|share|are\s+in)\s+a\s+many[\s-]to[\s-]many`)

	// "a user has one profile"
	nlHasOneRe = regexp.MustCompile(`(?:a|an|the|each|every)?\s*(\w+)\s+(?:can\s+)?(?:has|have)\s+(?:exactly\s+)?one\s+(\w+)`)

	// "a table for blog posts with fields for id, title, and content"
	nlFieldsRe = regexp.MustCompile(`(?:table|entity|record)s?\s+(?:for\s+|of\s+|called\s+|named\s+)?([\w ]+?)\s+with\s+(?:the\s+)?(?:fields?|columns?|attributes?|properties)\s+(?:for\s+|of\s+|like\s+)?([\w ,]+)`)

	// bare "a table for customers" / "I need a products table"
	nlTableRe = regexp.MustCompile(`(?:table|entity)s?\s+(?:for\s+|of\s+|called\s+|named\s+)?(\w+)|(?:a|an)\s+(\w+)\s+table`)
)

// stopWords are words the patterns may capture that never name an entity.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "it": true, "each": true,
	"every": true, "this": true, "that": true, "which": true, "with": true,
	"data": true, "database": true, "schema": true, "table": true,
	"tables": true, "system": true, "record": true, "records": true,
	"field": true, "fields": true, "information": true, "number": true,
}

// Parse implements the Parser contract for natural-language input.
func (p *TextParser) Parse(ctx context.Context, input string, hints Hints) (*model.Fragment, []model.Diagnostic, error) {
	if err := checkSize(input, hints); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	frag := &model.Fragment{SourceID: hints.SourceID}
	var diags []model.Diagnostic
	text := strings.ToLower(input)

	ensureTable := func(noun string) string {
		name := inflect.Plural(normalizeName(noun))
		for i := range frag.Tables {
			if strings.EqualFold(frag.Tables[i].Name, name) {
				return name
			}
		}
		frag.Tables = append(frag.Tables, model.Table{Name: name})
		return name
	}

	addRelationship := func(source, target string, card model.Cardinality) {
		src := ensureTable(source)
		tgt := ensureTable(target)
		for _, r := range frag.Relationships {
			if r.SourceTable == src && r.TargetTable == tgt {
				return
			}
		}
		frag.Relationships = append(frag.Relationships, model.Relationship{
			SourceTable: src,
			TargetTable: tgt,
			Cardinality: card,
			Provenance:  model.Provenance{SourceID: hints.SourceID, Confidence: nlRelationConfidence},
		})
		diags = append(diags, model.Suggestf(model.Location{Table: src},
			model.CodeInferredRelation,
			"inferred %s relationship %s -> %s from text, confirm before export", card, src, tgt))
	}

	for _, sentence := range splitSentences(text) {
		// Many-to-many first: its wording would otherwise also match has-many.
		if m := nlManyToManyRe.FindStringSubmatch(sentence); m != nil && validNoun(m[1]) && validNoun(m[2]) {
			addRelationship(m[1], m[2], model.ManyToMany)
			continue
		}
		if m := nlHasManyRe.FindStringSubmatch(sentence); m != nil && validNoun(m[1]) && validNoun(m[2]) {
			addRelationship(m[1], m[2], model.OneToMany)
			continue
		}
		if m := nlBelongsToRe.FindStringSubmatch(sentence); m != nil && validNoun(m[1]) && validNoun(m[2]) {
			// "orders belong to a customer" reads as customer -> orders.
			addRelationship(m[2], m[1], model.OneToMany)
			continue
		}
		if m := nlHasOneRe.FindStringSubmatch(sentence); m != nil && validNoun(m[1]) && validNoun(m[2]) {
			addRelationship(m[1], m[2], model.OneToOne)
			continue
		}

		if m := nlFieldsRe.FindStringSubmatch(sentence); m != nil {
			noun := lastWord(m[1])
			if !validNoun(noun) {
				continue
			}
			tableName := ensureTable(noun)
			table := tableByName(frag, tableName)
			for _, field := range splitFieldList(m[2]) {
				colName := normalizeName(field)
				if colName == "" || table.Column(colName) != nil {
					continue
				}
				table.Columns = append(table.Columns, model.Column{
					Name:       colName,
					Type:       model.Text(0),
					Nullable:   true,
					Provenance: model.Provenance{SourceID: hints.SourceID, Confidence: nlColumnConfidence},
				})
			}
			continue
		}

		if m := nlTableRe.FindStringSubmatch(sentence); m != nil {
			noun := m[1]
			if noun == "" {
				noun = m[2]
			}
			if validNoun(noun) {
				ensureTable(noun)
			}
		}
	}

	for _, t := range frag.Tables {
		diags = append(diags, model.Suggestf(model.Location{Table: t.Name},
			model.CodeLowConfidence,
			"entity %q extracted from text with confidence %d%%, confirm before export", t.Name, nlEntityConfidence))
	}

	return frag, diags, nil
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '\n' || r == '!' || r == '?'
	})
}

// splitFieldList splits "id, title and content" into its field names.
func splitFieldList(list string) []string {
	list = strings.ReplaceAll(list, " and ", ",")
	var fields []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func lastWord(phrase string) string {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func validNoun(word string) bool {
	return len(word) > 1 && !stopWords[word]
}

func tableByName(frag *model.Fragment, name string) *model.Table {
	for i := range frag.Tables {
		if strings.EqualFold(frag.Tables[i].Name, name) {
			return &frag.Tables[i]
		}
	}
	return nil
}
