package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every rule must at least match the filename it was written for.
func TestRuleExamples(t *testing.T) {
	fields := []Field{FieldSeries, FieldVolume, FieldChapter, FieldEdition}
	for _, p := range []*Profile{Manga, Comic} {
		for _, f := range fields {
			for _, r := range p.Rules(f) {
				value, _, ok := r.Match(r.Example)
				assert.True(t, ok, "%s %s rule %d does not match %q", p.Name, f, r.Priority, r.Example)
				assert.NotEmpty(t, value, "%s %s rule %d captured nothing from %q", p.Name, f, r.Priority, r.Example)
			}
		}
	}
}

func TestRulePriorities(t *testing.T) {
	for i, r := range Manga.Rules(FieldChapter) {
		assert.Equal(t, i, r.Priority)
		assert.Equal(t, FieldChapter, r.Field)
	}
	assert.Nil(t, Manga.Rules(Field("Unknown")))
	assert.Equal(t, Manga.Rules(FieldVolume), Book.Rules(FieldVolume))
}

func TestRuleMatchPart(t *testing.T) {
	var partRule Rule
	for _, r := range Manga.Rules(FieldChapter) {
		if r.Example == "Beelzebub_153b_RHS" {
			partRule = r
		}
	}
	value, hasPart, ok := partRule.Match("Beelzebub_153b_RHS")
	assert.True(t, ok)
	assert.True(t, hasPart)
	assert.Equal(t, "153", value)

	value, hasPart, ok = partRule.Match("Beelzebub_01_[Noodles]")
	assert.True(t, ok)
	assert.False(t, hasPart)
	assert.Equal(t, "01", value)
}
