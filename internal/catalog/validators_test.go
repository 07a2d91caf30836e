package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		check   func(any) error
		value   any
		wantErr string
	}{
		{"numeric rejected", NotNumeric("numeric"), "123456", "numeric"},
		{"mixed accepted", NotNumeric("numeric"), "12ab56", ""},
		{"blank skipped", NotNumeric("numeric"), "", ""},
		{"too short", LengthBetween(6, 20), "abc", "Ensure this field has between 6 and 20 characters."},
		{"runes counted", LengthBetween(2, 3), "连城诀", ""},
		{"in set", OneOf("nope", NovelTitles), "鹿鼎记", ""},
		{"outside set", OneOf("nope", NovelTitles), "红楼梦", "nope"},
		{"email ok", Email, "ada@example.com", ""},
		{"email bad", Email, "ada@", "Enter a valid email address."},
		{"email blank", Email, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNovelTitlesFitColumn(t *testing.T) {
	seen := map[string]bool{}
	for _, title := range NovelTitles {
		assert.False(t, seen[title], title)
		seen[title] = true
		assert.LessOrEqual(t, len([]rune(title)), 20)
	}
	assert.Len(t, NovelTitles, 15)
}
