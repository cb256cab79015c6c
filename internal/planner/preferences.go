package planner

import (
	"fmt"
	"strings"
)

// MaxHouseholdSize caps how many people a single plan is sized for.
const MaxHouseholdSize = 12

// Preferences describe the household a plan is generated for.
type Preferences struct {
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Diet     string `json:"diet,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// People returns the total household size.
func (p Preferences) People() int {
	return p.Adults + p.Children
}

// Validate checks that the preferences describe a plannable household.
func (p Preferences) Validate() error {
	if p.Adults < 1 {
		return fmt.Errorf("at least one adult is required, got %d", p.Adults)
	}
	if p.Children < 0 {
		return fmt.Errorf("children cannot be negative, got %d", p.Children)
	}
	if p.People() > MaxHouseholdSize {
		return fmt.Errorf("household of %d exceeds the maximum of %d", p.People(), MaxHouseholdSize)
	}
	return nil
}

// DietOrDefault returns the diet label used in prompts.
func (p Preferences) DietOrDefault() string {
	if d := strings.TrimSpace(p.Diet); d != "" {
		return d
	}
	return "no restrictions"
}
