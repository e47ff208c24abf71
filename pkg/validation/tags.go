package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	TagNickname   = "nickname"
	TagPassword   = "strong_password"
	TagProfileURL = "profile_url"
)

var rules = map[string]func(string) error{
	TagNickname:   Nickname,
	TagPassword:   Password,
	TagProfileURL: ProfileURL,
}

// RegisterTags installs the custom rules on a validator instance.
func RegisterTags(v *validator.Validate) error {
	for tag, rule := range rules {
		rule := rule
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String()) == nil
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// Message re-runs the rule behind tag to explain why value failed.
// ok is false when tag is not one of ours.
func Message(tag string, value any) (string, bool) {
	rule, found := rules[tag]
	if !found {
		return "", false
	}
	s, _ := value.(string)
	if p, isPtr := value.(*string); isPtr && p != nil {
		s = *p
	}
	if err := rule(s); err != nil {
		return err.Error(), true
	}
	return "is invalid", true
}
