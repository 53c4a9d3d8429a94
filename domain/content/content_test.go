package content

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

func TestRecommendHashtags(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  []string
	}{
		{
			name:  "empty topic yields industry tags",
			topic: "",
			want:  []string{"AI", "MachineLearning", "DataScience", "Tech", "Innovation"},
		},
		{
			name:  "short and special words are dropped",
			topic: "The future of remote-work and leadership",
			want:  []string{"Future", "Leadership", "AI", "MachineLearning", "DataScience", "Tech", "Innovation"},
		},
		{
			name:  "duplicates collapse",
			topic: "tech Tech innovation",
			want:  []string{"Tech", "Innovation", "AI", "MachineLearning", "DataScience"},
		},
		{
			name:  "capped at ten",
			topic: "alpha bravo charlie delta foxtrot hotel india juliet kilo lima",
			want:  []string{"Alpha", "Bravo", "Charlie", "Delta", "Foxtrot", "Hotel", "India", "Juliet", "Kilo", "Lima"},
		},
		{
			name:  "non ascii words are dropped",
			topic: "künstliche intelligenz",
			want:  []string{"Intelligenz", "AI", "MachineLearning", "DataScience", "Tech", "Innovation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendHashtags(tt.topic))
		})
	}
}

func TestNormalizeHashtags(t *testing.T) {
	assert.Equal(t, []string{"AI", "Growth"}, NormalizeHashtags([]string{"#AI", " ai ", "", "##Growth"}))
}

func TestSystemTemplates(t *testing.T) {
	templates := SystemTemplates()

	require.Len(t, templates, 4)
	assert.Equal(t, "Question-Based", templates[3].Name)
	assert.True(t, IsSystemTemplate("data-driven"))
	assert.False(t, IsSystemTemplate("personal-1"))
}

func TestNewPersonalTemplate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tmpl, err := NewPersonalTemplate("  Weekly recap ", "What I learned this week", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tmpl.ID, "personal-"))
	assert.Equal(t, "Weekly recap", tmpl.Name)
	assert.Equal(t, TemplatePersonal, tmpl.Type)

	_, err = NewPersonalTemplate("   ", "x", now)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNewDraft(t *testing.T) {
	now := time.Now()

	d, err := NewDraft("user-1", "", "<p>Hello</p>", "", []string{"#AI"}, now)
	require.NoError(t, err)
	assert.Equal(t, TypePost, d.ContentType)
	assert.Equal(t, []string{"AI"}, d.Hashtags)

	_, err = NewDraft("user-1", "", strings.Repeat("x", MaxContentLength+1), TypePost, nil, now)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewDraft("", "", "body", TypePost, nil, now)
	assert.Error(t, err)

	_, err = NewDraft("user-1", "", "body", "video", nil, now)
	assert.Error(t, err)
}

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType("Article")
	require.NoError(t, err)
	assert.Equal(t, TypeArticle, ct)

	_, err = ParseContentType("reel")
	assert.Error(t, err)
}
