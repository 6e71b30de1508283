package instances

import (
	"fmt"
	"reflect"
	"time"
)

// UpdateOutcome is the result of applying an update strategy after a
// successful class redefinition. Invariant: Updated + Failed <= Total;
// Updated == Total == 0 implies Method == NO_UPDATE.
type UpdateOutcome struct {
	ClassName string
	Method    UpdateMethod
	Updated   int
	Total     int
	Failed    int
	Duration  time.Duration
	Detail    string
}

// DecisionContext carries the platform/runtime facts the Updater's
// decision procedure switches on. A real platform integration populates
// these from its own introspection; without one, DecisionContext is
// supplied directly by the Hot-Swap Manager's caller.
type DecisionContext struct {
	FieldLayoutPreserved bool
	MethodTablesMigrated bool
	ProxyWrapper         bool
	FactoryManaged       bool
}

// StrategyRule is one step of the ordered decision procedure. Applies
// decides whether this rule's Method is the one to use, given the class
// has at least one live instance (the "not tracked or zero instances"
// pre-check happens before any rule is consulted).
type StrategyRule struct {
	Method  UpdateMethod
	Applies func(DecisionContext) bool
}

// DefaultStrategyRules returns the standard decision procedure, in the
// order it must be evaluated: automatic migration, proxy refresh, factory
// reset, then reflective copy as the catch-all. Exposing the order as data
// (rather than burying it in an if/else chain) lets a caller reorder or
// narrow it via configuration.
func DefaultStrategyRules() []StrategyRule {
	return []StrategyRule{
		{Method: AUTOMATIC, Applies: func(c DecisionContext) bool {
			return c.FieldLayoutPreserved && c.MethodTablesMigrated
		}},
		{Method: PROXY_REFRESH, Applies: func(c DecisionContext) bool {
			return c.ProxyWrapper
		}},
		{Method: FACTORY_RESET, Applies: func(c DecisionContext) bool {
			return c.FactoryManaged
		}},
		{Method: REFLECTION, Applies: func(DecisionContext) bool {
			return true // catch-all: rule 5 always applies if nothing above matched
		}},
	}
}

// Updater is the Instance Updater: given a redefined class, it selects and
// applies an update strategy to every currently-tracked live instance.
type Updater struct {
	rules  []StrategyRule
	copier func(any) error
}

// UpdaterOption configures an Updater at construction time.
type UpdaterOption func(*Updater)

// WithReflectiveCopier replaces the per-instance migration function used by
// the REFLECTION strategy. A platform integration with richer knowledge of
// its instances supplies its own; tests use it to inject failures.
func WithReflectiveCopier(fn func(any) error) UpdaterOption {
	return func(u *Updater) { u.copier = fn }
}

// NewUpdater builds an Updater evaluating rules in order. Pass
// DefaultStrategyRules() for the standard policy.
func NewUpdater(rules []StrategyRule, opts ...UpdaterOption) *Updater {
	u := &Updater{rules: rules, copier: defaultReflectiveCopy}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update runs the decision procedure for class and applies the chosen
// strategy. enabled restricts which methods the caller's configuration
// permits; a rule whose Method is not in enabled is skipped even if
// Applies would return true.
func (u *Updater) Update(tracker *Tracker, class string, ctx DecisionContext, enabled map[UpdateMethod]bool) UpdateOutcome {
	start := time.Now()

	live := tracker.InstancesOf(class)
	total := len(live)
	if !tracker.IsTracked(class) || total == 0 {
		return UpdateOutcome{ClassName: class, Method: NO_UPDATE, Duration: time.Since(start), Detail: "no tracked live instances"}
	}

	for _, rule := range u.rules {
		if rule.Method == REFLECTION {
			continue // applied last, outside this loop, since it is per-instance and fallible
		}
		if !enabled[rule.Method] {
			continue
		}
		if rule.Applies(ctx) {
			return UpdateOutcome{
				ClassName: class, Method: rule.Method, Updated: total, Total: total,
				Duration: time.Since(start), Detail: "applied uniformly to all live instances",
			}
		}
	}

	if !enabled[REFLECTION] {
		return UpdateOutcome{ClassName: class, Method: NO_UPDATE, Total: total, Duration: time.Since(start), Detail: "no applicable strategy enabled"}
	}

	updated, failed := 0, 0
	var firstErr error
	for _, inst := range live {
		if err := u.copier(inst); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}
	detail := "field-by-field copy into freshly constructed instances"
	if failed > 0 {
		detail = fmt.Sprintf("%s (%d failed, first: %v)", detail, failed, firstErr)
	}
	return UpdateOutcome{
		ClassName: class, Method: REFLECTION, Updated: updated, Total: total, Failed: failed,
		Duration: time.Since(start), Detail: detail,
	}
}

// defaultReflectiveCopy performs the reflective migration: a freshly
// constructed value of the instance's type receives the old field values,
// then replaces the referent in place. One instance's failure must not
// abort its siblings, so this returns an error instead of panicking.
func defaultReflectiveCopy(inst any) error {
	v := reflect.ValueOf(inst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("cannot migrate %T: not a non-nil pointer", inst)
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("cannot migrate %T: referent is not a struct", inst)
	}
	fresh := reflect.New(elem.Type()).Elem()
	fresh.Set(elem)
	elem.Set(fresh)
	return nil
}
