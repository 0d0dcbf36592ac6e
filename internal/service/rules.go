package service

import (
	"errors"

	"github.com/branchops/expense-service/internal/models"
	"github.com/branchops/expense-service/internal/settlement"
)

// ErrUnknownRuleType rejects alert rules outside the closed type enumeration.
var ErrUnknownRuleType = errors.New("unknown alert rule type")

// CreateAlertRule records a new notification rule.
func (s *Service) CreateAlertRule(ruleType string, dayOffset int, active bool, description string) (*models.AlertRule, error) {
	if !settlement.KnownRuleType(settlement.RuleType(ruleType)) {
		return nil, ErrUnknownRuleType
	}

	rule := &models.AlertRule{
		RuleType:    ruleType,
		DayOffset:   dayOffset,
		Active:      active,
		Description: description,
	}
	if err := s.repo.CreateAlertRule(rule); err != nil {
		return nil, err
	}

	s.log.Infof("Alert rule created: id=%d type=%s offset=%d active=%t",
		rule.ID, rule.RuleType, rule.DayOffset, rule.Active)
	return rule, nil
}

// ListAlertRules returns every configured rule, active or not.
func (s *Service) ListAlertRules() ([]models.AlertRule, error) {
	return s.repo.ListAlertRules()
}
