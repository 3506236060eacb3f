package dto

import "github.com/noah-isme/sma-pedagogy-api/internal/models"

// RiskRuleRequest creates or replaces a risk rule.
type RiskRuleRequest struct {
	Name       string                    `json:"name" validate:"required,max=150"`
	Definition models.RiskDefinitionSpec `json:"definition" validate:"required"`
	IsActive   *bool                     `json:"isActive"`
}

// RiskRuleToggleRequest switches a rule on or off.
type RiskRuleToggleRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
