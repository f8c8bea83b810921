package service

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/apperr"
	"github.com/opencode-cafe/marketplace/common/logger"
)

// Screener evaluates configured CEL rules against new submissions.
// A rule that evaluates to true vetoes the submission. With no rules
// configured every submission passes.
type Screener struct {
	programs []screeningRule
	log      *logger.Logger
}

type screeningRule struct {
	expr    string
	program cel.Program
}

// NewScreener compiles the configured rules once. Rules that fail to
// compile are logged and skipped, never fatal.
func NewScreener(rules []string, log *logger.Logger) *Screener {
	s := &Screener{log: log}

	for _, expr := range rules {
		program, err := compileRule(expr)
		if err != nil {
			log.Warn("skipping invalid screening rule", "rule", expr, "error", err)
			continue
		}
		s.programs = append(s.programs, screeningRule{expr: expr, program: program})
	}

	if len(s.programs) > 0 {
		log.Info("submission screening enabled", "rules", len(s.programs))
	}

	return s
}

func compileRule(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("submission", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

// Check evaluates all rules against the submission. Returns InvalidInput
// when a rule vetoes it. Rules that error or return a non-boolean are
// logged and ignored (fail open).
func (s *Screener) Check(ext *models.Extension) error {
	if len(s.programs) == 0 {
		return nil
	}

	submission := map[string]interface{}{
		"productId":   ext.ProductID,
		"type":        string(ext.Type),
		"displayName": ext.DisplayName,
		"description": ext.Description,
		"repoUrl":     ext.RepoURL,
		"tags":        ext.Tags,
	}

	for _, rule := range s.programs {
		out, _, err := rule.program.Eval(map[string]interface{}{
			"submission": submission,
		})
		if err != nil {
			s.log.Warn("screening rule evaluation failed", "rule", rule.expr, "error", err)
			continue
		}

		vetoed, ok := out.Value().(bool)
		if !ok {
			s.log.Warn("screening rule did not return boolean", "rule", rule.expr)
			continue
		}

		if vetoed {
			s.log.Info("submission vetoed by screening rule",
				"product_id", ext.ProductID, "rule", rule.expr)
			return apperr.InvalidInput("submission rejected by content screening")
		}
	}

	return nil
}

// RuleCount returns the number of active rules
func (s *Screener) RuleCount() int {
	return len(s.programs)
}
