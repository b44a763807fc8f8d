package rules

import (
	"errors"
	"testing"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicRule(t *testing.T) {
	r, err := Parse(`alert file any any -> any any (msg:"Test Malware"; content:"*.virus"; sid:1001; rev:1;)`)
	require.NoError(t, err)

	assert.Equal(t, 1001, r.Sid)
	assert.Equal(t, 1, r.Revision)
	assert.Equal(t, domain.CategoryFile, r.Category)
	assert.Equal(t, domain.ActionAlert, r.Action)
	assert.Equal(t, "Test Malware", r.Message)
	assert.Equal(t, "*.virus", r.ContentPattern)
	assert.True(t, r.Enabled)
}

func TestParse_Options(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		action   domain.RuleAction
		category domain.RuleCategory
		check    func(t *testing.T, r domain.SecurityRule)
	}{
		{
			name:     "keywords are case insensitive",
			text:     `QUARANTINE FILE ANY ANY -> ANY ANY (MSG:"x"; SID:5;)`,
			action:   domain.ActionQuarantine,
			category: domain.CategoryFile,
		},
		{
			name:     "inline action overrides header",
			text:     `alert file any any -> any any (msg:"x"; action:delete; sid:6;)`,
			action:   domain.ActionDelete,
			category: domain.CategoryFile,
		},
		{
			name:     "unknown action and category use defaults",
			text:     `shout tcp any any -> any any (sid:7;)`,
			action:   domain.ActionAlert,
			category: domain.CategoryFile,
		},
		{
			name:     "process category",
			text:     `block process any any -> any any (sid:8;)`,
			action:   domain.ActionBlock,
			category: domain.CategoryProcess,
		},
		{
			name:     "unknown keys ignored",
			text:     `log file any any -> any any (msg:"x"; classtype:trojan; nocase; sid:9; rev:4;)`,
			action:   domain.ActionLog,
			category: domain.CategoryFile,
			check: func(t *testing.T, r domain.SecurityRule) {
				assert.Equal(t, 4, r.Revision)
			},
		},
		{
			name:     "hash and behaviour",
			text:     `alert file any any -> any any (hash:"MD5:ABC"; behavior:"hidden, script"; sid:10;)`,
			action:   domain.ActionAlert,
			category: domain.CategoryFile,
			check: func(t *testing.T, r domain.SecurityRule) {
				algo, digest, ok := r.HashAlgorithm()
				require.True(t, ok)
				assert.Equal(t, "md5", algo)
				assert.Equal(t, "abc", digest)
				assert.Equal(t, []string{"hidden", "script"}, r.Tags())
			},
		},
		{
			name:     "escaped quotes and semicolons in values",
			text:     `alert file any any -> any any (msg:"say \"hi\"; now"; sid:11;)`,
			action:   domain.ActionAlert,
			category: domain.CategoryFile,
			check: func(t *testing.T, r domain.SecurityRule) {
				assert.Equal(t, `say "hi"; now`, r.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.action, r.Action)
			assert.Equal(t, tt.category, r.Category)
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	inputs := map[string]string{
		"empty":             "",
		"whitespace":        "   \t ",
		"missing sid":       `alert file any any -> any any (msg:"x";)`,
		"non numeric sid":   `alert file any any -> any any (msg:"x"; sid:abc;)`,
		"negative sid":      `alert file any any -> any any (sid:-3;)`,
		"missing arrow":     `alert file any any any any (sid:1;)`,
		"missing parens":    `alert file any any -> any any sid:1;`,
		"unterminated":      `alert file any any -> any any (msg:"x; sid:1;)`,
		"missing addresses": `alert file -> (sid:1;)`,
	}

	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			require.Error(t, err)

			var pe *domain.ParseError
			assert.True(t, errors.As(err, &pe))
			assert.ErrorIs(t, err, domain.ErrInvalidRule)
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	original := domain.SecurityRule{
		Sid:            42,
		Revision:       3,
		Category:       domain.CategoryFile,
		Action:         domain.ActionQuarantine,
		Message:        `quote " and \ slash`,
		ContentPattern: "*.exe",
		HashSpec:       "sha256:abcd",
		BehaviorTags:   "hidden",
	}

	parsed, err := Parse(Format(original))
	require.NoError(t, err)

	assert.Equal(t, original.Sid, parsed.Sid)
	assert.Equal(t, original.Revision, parsed.Revision)
	assert.Equal(t, original.Action, parsed.Action)
	assert.Equal(t, original.Message, parsed.Message)
	assert.Equal(t, original.ContentPattern, parsed.ContentPattern)
	assert.Equal(t, original.HashSpec, parsed.HashSpec)
	assert.Equal(t, original.BehaviorTags, parsed.BehaviorTags)
}

func TestDefaultRules_AllParse(t *testing.T) {
	seen := make(map[int]bool)
	for _, text := range DefaultRuleTexts() {
		r, err := Parse(text)
		require.NoError(t, err, text)
		assert.False(t, seen[r.Sid], "duplicate sid %d", r.Sid)
		seen[r.Sid] = true
		assert.True(t, r.HasCriteria())
	}
}

func TestGlobToRegexp(t *testing.T) {
	cache := NewPatternCache(4)

	assert.True(t, cache.Compile("*.virus").MatchString("sample.virus"))
	assert.True(t, cache.Compile("*.virus").MatchString("SAMPLE.VIRUS"))
	assert.False(t, cache.Compile("*.virus").MatchString("sample.virus.txt"))
	assert.True(t, cache.Compile("file?.txt").MatchString("file1.txt"))
	assert.False(t, cache.Compile("file?.txt").MatchString("file12.txt"))
	assert.True(t, cache.Compile("a+b(c).*").MatchString("a+b(c).doc"))
	assert.Equal(t, 3, cache.Len())
}

func TestPatternCache_Eviction(t *testing.T) {
	cache := NewPatternCache(2)
	cache.Compile("*.a")
	cache.Compile("*.b")
	cache.Compile("*.a") // refresh
	cache.Compile("*.c")

	_, okA := cache.Get("*.a")
	_, okB := cache.Get("*.b")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
