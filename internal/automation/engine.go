// Package automation evaluates operator-defined rules against inbound
// messages. The engine is pure per call; rules load once at startup.
package automation

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

type Engine struct {
	rules  []Rule
	logger *slog.Logger
	now    func() time.Time
}

type rulesFile struct {
	Rules []Rule `toml:"rules"`
}

func NewEngine(log *slog.Logger, rules []Rule) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		rules:  rules,
		logger: log.With(slog.String("service", "automation")),
		now:    time.Now,
	}
}

// LoadRules reads an ordered [[rules]] list from a TOML file. A missing path
// yields an engine with no rules rather than an error.
func LoadRules(log *slog.Logger, path string) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return NewEngine(log, nil), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewEngine(log, nil), nil
	}
	var file rulesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	for i, rule := range file.Rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}
	return NewEngine(log, file.Rules), nil
}

func validateRule(rule Rule) error {
	for _, cond := range rule.Conditions {
		switch cond.Kind {
		case ConditionChannel, ConditionKeyword, ConditionVip, ConditionTag, ConditionBusinessHours:
		default:
			return fmt.Errorf("unknown condition kind %q", cond.Kind)
		}
	}
	for _, action := range rule.Actions {
		switch action.Kind {
		case ActionNotify, ActionAssign, ActionTag, ActionPriority, ActionAutoReply:
		default:
			return fmt.Errorf("unknown action kind %q", action.Kind)
		}
	}
	return nil
}

// Evaluate runs every rule in order against one message. A rule fires only
// when all its conditions hold; fired actions accumulate across rules.
func (e *Engine) Evaluate(msg message.Message, cust customer.Customer, th thread.Thread) []Action {
	var fired []Action
	for _, rule := range e.rules {
		if e.matches(rule, msg, cust) {
			fired = append(fired, rule.Actions...)
			e.logger.Debug("rule fired",
				slog.String("rule", rule.Name),
				slog.String("thread_id", th.ID))
		}
	}
	return fired
}

func (e *Engine) matches(rule Rule, msg message.Message, cust customer.Customer) bool {
	for _, cond := range rule.Conditions {
		if !e.matchCondition(cond, msg, cust) {
			return false
		}
	}
	return true
}

func (e *Engine) matchCondition(cond Condition, msg message.Message, cust customer.Customer) bool {
	switch cond.Kind {
	case ConditionChannel:
		for _, channel := range cond.Channels {
			if strings.EqualFold(channel, msg.Channel) {
				return true
			}
		}
		return false
	case ConditionKeyword:
		content := strings.ToLower(msg.Content)
		for _, keyword := range cond.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(keyword)) {
				return true
			}
		}
		return false
	case ConditionVip:
		return cust.IsVip == cond.Vip
	case ConditionTag:
		for _, tag := range cust.Tags {
			if tag == cond.Tag {
				return true
			}
		}
		return false
	case ConditionBusinessHours:
		return inBusinessHours(e.now())
	}
	return false
}

// inBusinessHours is a fixed Mon-Fri 09:00-18:00 window on the server clock.
func inBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := t.Hour()
	return hour >= 9 && hour < 18
}
