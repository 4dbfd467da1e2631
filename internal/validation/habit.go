// Package validation holds the habit rule set that every create and update
// must pass before anything is written to the store.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxLeadTimeSeconds is the longest a habit may take to perform.
	MaxLeadTimeSeconds = 120
	// MaxPeriodicityDays is the longest allowed gap between two repetitions.
	MaxPeriodicityDays = 7
)

// Rule identifies one category of habit invariant.
type Rule string

const (
	RuleLeadTime               Rule = "lead_time"
	RulePeriodicity            Rule = "periodicity"
	RuleRewardExclusivity      Rule = "reward_exclusivity"
	RulePleasurableExclusivity Rule = "pleasurable_exclusivity"
	RuleAssociatedPleasurable  Rule = "associated_pleasurable"
)

// Canonical failure messages, returned verbatim to API clients.
const (
	MsgLeadTime               = "Execution time must not exceed 120 seconds."
	MsgPeriodicity            = "The habit must be performed at least once every 7 days."
	MsgRewardExclusivity      = "Cannot set both a reward and an associated habit."
	MsgPleasurableExclusivity = "Cannot set a reward or an associated habit for a pleasurable habit."
	MsgAssociatedPleasurable  = "The associated habit must be pleasurable."
	MsgAssociatedMissing      = "The associated habit does not exist."
)

// ErrHabitNotFound must be returned by a HabitLookup when the id is unknown.
var ErrHabitNotFound = errors.New("habit not found")

// HabitFields is the merged state a write would produce: for an update it is
// the stored record with the incoming changes applied.
type HabitFields struct {
	ID                uint
	Place             *string
	Time              *string
	PeriodicityDays   int
	Action            string
	IsPleasurable     bool
	AssociatedHabitID *uint
	Reward            *string
	LeadTimeSeconds   int
	IsPublic          bool
}

// HabitLookup resolves a habit by id for the associated-habit rule.
type HabitLookup interface {
	LookupHabit(id uint) (HabitFields, error)
}

// Failure is one violated rule.
type Failure struct {
	Rule    Rule
	Message string
}

// Result collects the failures of a single Validate call, in rule order.
type Result struct {
	Failures []Failure
}

// OK reports whether no rule was violated.
func (r Result) OK() bool {
	return len(r.Failures) == 0
}

// Messages returns the failure messages in rule order.
func (r Result) Messages() []string {
	messages := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		messages = append(messages, failure.Message)
	}
	return messages
}

// Has reports whether the given rule failed.
func (r Result) Has(rule Rule) bool {
	for _, failure := range r.Failures {
		if failure.Rule == rule {
			return true
		}
	}
	return false
}

// Error wraps a failed Result so it can travel through error returns.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("habit validation failed: %s", strings.Join(e.Result.Messages(), "; "))
}

// Err returns nil for a passing result and *Error otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Result: r}
}

type check func(candidate HabitFields, store HabitLookup) (string, error)

var rules = []struct {
	rule  Rule
	check check
}{
	{RuleLeadTime, checkLeadTime},
	{RulePeriodicity, checkPeriodicity},
	{RuleRewardExclusivity, checkRewardExclusivity},
	{RulePleasurableExclusivity, checkPleasurableExclusivity},
	{RuleAssociatedPleasurable, checkAssociatedPleasurable},
}

// Validate runs every rule against candidate and reports at most one failure
// per rule. The returned error is non-nil only when the store lookup itself
// failed for a reason other than ErrHabitNotFound.
func Validate(candidate HabitFields, store HabitLookup) (Result, error) {
	result := Result{}
	for _, r := range rules {
		message, err := r.check(candidate, store)
		if err != nil {
			return Result{}, fmt.Errorf("%s rule: %w", r.rule, err)
		}
		if message != "" {
			result.Failures = append(result.Failures, Failure{Rule: r.rule, Message: message})
		}
	}
	return result, nil
}

func checkLeadTime(candidate HabitFields, _ HabitLookup) (string, error) {
	if candidate.LeadTimeSeconds > MaxLeadTimeSeconds {
		return MsgLeadTime, nil
	}
	return "", nil
}

func checkPeriodicity(candidate HabitFields, _ HabitLookup) (string, error) {
	if candidate.PeriodicityDays > MaxPeriodicityDays {
		return MsgPeriodicity, nil
	}
	return "", nil
}

func checkRewardExclusivity(candidate HabitFields, _ HabitLookup) (string, error) {
	if candidate.AssociatedHabitID != nil && candidate.Reward != nil {
		return MsgRewardExclusivity, nil
	}
	return "", nil
}

// Reported once even when both reward and associated habit are set.
func checkPleasurableExclusivity(candidate HabitFields, _ HabitLookup) (string, error) {
	if candidate.IsPleasurable && (candidate.AssociatedHabitID != nil || candidate.Reward != nil) {
		return MsgPleasurableExclusivity, nil
	}
	return "", nil
}

func checkAssociatedPleasurable(candidate HabitFields, store HabitLookup) (string, error) {
	if candidate.AssociatedHabitID == nil {
		return "", nil
	}
	if store == nil {
		return "", errors.New("no habit store to resolve associated habit")
	}

	associated, err := store.LookupHabit(*candidate.AssociatedHabitID)
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return MsgAssociatedMissing, nil
		}
		return "", err
	}
	if !associated.IsPleasurable {
		return MsgAssociatedPleasurable, nil
	}
	return "", nil
}
