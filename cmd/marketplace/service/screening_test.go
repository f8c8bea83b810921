package service

import (
	"testing"

	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/stretchr/testify/assert"
)

func screeningTarget() *models.Extension {
	return &models.Extension{
		ProductID:   "totally-free-vbucks",
		Type:        models.TypeTool,
		DisplayName: "Totally Free VBucks",
		Description: "definitely not spam",
		RepoURL:     "https://example.com/repo",
		Tags:        []string{"free", "money"},
	}
}

func TestScreenerNoRules(t *testing.T) {
	s := NewScreener(nil, testLogger())
	assert.Equal(t, 0, s.RuleCount())
	assert.NoError(t, s.Check(screeningTarget()))
}

func TestScreenerVeto(t *testing.T) {
	s := NewScreener([]string{
		`submission.displayName.contains("VBucks")`,
	}, testLogger())
	assert.Equal(t, 1, s.RuleCount())

	err := s.Check(screeningTarget())
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	clean := screeningTarget()
	clean.DisplayName = "Neo Theme"
	assert.NoError(t, s.Check(clean))
}

func TestScreenerInvalidRuleSkipped(t *testing.T) {
	s := NewScreener([]string{
		`this is not CEL (((`,
		`submission.productId == "totally-free-vbucks"`,
	}, testLogger())

	// The broken rule is dropped, the valid one still applies
	assert.Equal(t, 1, s.RuleCount())
	err := s.Check(screeningTarget())
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestScreenerNonBooleanIgnored(t *testing.T) {
	s := NewScreener([]string{
		`submission.displayName`, // evaluates to a string, not a veto
	}, testLogger())

	assert.NoError(t, s.Check(screeningTarget()))
}
