package rimepatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-rimepatch/tree"
)

// ErrUnknownEngine reports a check naming an engine that is not available.
var ErrUnknownEngine = errors.New("rimepatch: unknown check engine")

// CheckSpec is a user-configured preflight rule. Expr must evaluate to a
// boolean; false fails the check and Message is reported.
type CheckSpec struct {
	Name    string `json:"name" yaml:"name"`
	Engine  string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Expr    string `json:"expr" yaml:"expr"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// Document limits the check to one document name. Empty applies to all.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// CheckReport collects the results of a run.
type CheckReport struct {
	Document string        `json:"document"`
	Results  []CheckResult `json:"results"`
}

// Passed reports whether every check passed.
func (r CheckReport) Passed() bool {
	for _, result := range r.Results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed results.
func (r CheckReport) Failures() []CheckResult {
	var out []CheckResult
	for _, result := range r.Results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}

// Summary joins failure messages, one per line.
func (r CheckReport) Summary() string {
	failures := r.Failures()
	lines := make([]string, 0, len(failures))
	for _, failure := range failures {
		lines = append(lines, fmt.Sprintf("%s: %s", failure.Name, failure.Message))
	}
	return strings.Join(lines, "\n")
}

// CheckerOption configures a Checker.
type CheckerOption func(*checkerConfig)

type checkerConfig struct {
	cache      ProgramCache
	functions  *FunctionRegistry
	logger     EvaluatorLogger
	evaluators []Evaluator
	now        func() time.Time
}

// WithProgramCache shares a compiled program cache across engines.
func WithProgramCache(cache ProgramCache) CheckerOption {
	return func(cfg *checkerConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry replaces the default helper functions.
func WithFunctionRegistry(registry *FunctionRegistry) CheckerOption {
	return func(cfg *checkerConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction adds fn to the registry checks can call.
func WithCustomFunction(name string, fn Function) CheckerOption {
	return func(cfg *checkerConfig) {
		if cfg.functions == nil {
			cfg.functions = DefaultFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) CheckerOption {
	return func(cfg *checkerConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithEvaluator registers a custom engine, replacing any built-in engine of
// the same name.
func WithEvaluator(evaluator Evaluator) CheckerOption {
	return func(cfg *checkerConfig) {
		if evaluator != nil {
			cfg.evaluators = append(cfg.evaluators, evaluator)
		}
	}
}

type compiledCheck struct {
	spec   CheckSpec
	engine string
	rule   CompiledRule
}

// Checker evaluates preflight checks against a document before deploy.
// Specs are compiled once at construction.
type Checker struct {
	checks []compiledCheck
	logger EvaluatorLogger
	now    func() time.Time
}

// NewChecker validates and compiles specs. A spec with an empty name or
// expression, an unknown engine, or an expression that fails to compile is
// an error.
func NewChecker(specs []CheckSpec, opts ...CheckerOption) (*Checker, error) {
	cfg := checkerConfig{logger: noopEvaluatorLogger{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.functions == nil {
		cfg.functions = DefaultFunctionRegistry()
	}
	if cfg.cache == nil {
		cache, err := NewLRUProgramCache(DefaultProgramCacheSize)
		if err != nil {
			return nil, err
		}
		cfg.cache = cache
	}

	evaluators := builtinEvaluators(cfg)
	for _, evaluator := range cfg.evaluators {
		evaluators[evaluator.Engine()] = evaluator
	}

	checker := &Checker{logger: cfg.logger, now: cfg.now}
	for i, spec := range specs {
		spec.Name = strings.TrimSpace(spec.Name)
		spec.Expr = strings.TrimSpace(spec.Expr)
		if spec.Name == "" {
			return nil, fmt.Errorf("rimepatch: check %d: name must not be empty", i)
		}
		if spec.Expr == "" {
			return nil, fmt.Errorf("rimepatch: check %q: expression must not be empty", spec.Name)
		}
		engine := strings.ToLower(strings.TrimSpace(spec.Engine))
		if engine == "" {
			engine = EngineExpr
		}
		evaluator, ok := evaluators[engine]
		if !ok {
			return nil, fmt.Errorf("%w %q in check %q", ErrUnknownEngine, engine, spec.Name)
		}
		rule, err := evaluator.Compile(spec.Expr)
		if err != nil {
			return nil, fmt.Errorf("rimepatch: check %q: %w", spec.Name, err)
		}
		if spec.Message == "" {
			spec.Message = fmt.Sprintf("check %s failed", spec.Name)
		}
		checker.checks = append(checker.checks, compiledCheck{spec: spec, engine: engine, rule: rule})
	}
	return checker, nil
}

func builtinEvaluators(cfg checkerConfig) map[string]Evaluator {
	evaluators := map[string]Evaluator{
		EngineExpr: NewExprEvaluator(ExprWithProgramCache(cfg.cache), ExprWithFunctionRegistry(cfg.functions)),
		EngineCEL:  NewCELEvaluator(CELWithProgramCache(cfg.cache), CELWithFunctionRegistry(cfg.functions)),
	}
	if jsEvaluatorAvailable() {
		evaluators[EngineJS] = NewJSEvaluator(JSWithProgramCache(cfg.cache), JSWithFunctionRegistry(cfg.functions))
	}
	return evaluators
}

// Len reports the number of compiled checks.
func (c *Checker) Len() int {
	if c == nil {
		return 0
	}
	return len(c.checks)
}

// Run evaluates every check that applies to name. A check that errors or
// yields a non-boolean fails.
func (c *Checker) Run(name string, effective, patch *tree.Mapping) CheckReport {
	report := CheckReport{Document: name, Results: []CheckResult{}}
	if c == nil {
		return report
	}
	now := c.now()
	ctx := RuleContext{
		Document: name,
		Snapshot: plainMapping(effective),
		Patch:    plainMapping(patch),
		Now:      &now,
	}
	for _, check := range c.checks {
		if check.spec.Document != "" && check.spec.Document != name {
			continue
		}
		report.Results = append(report.Results, c.evaluate(check, ctx))
	}
	return report
}

func (c *Checker) evaluate(check compiledCheck, ctx RuleContext) CheckResult {
	start := time.Now()
	value, err := check.rule.Evaluate(ctx)
	c.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   check.engine,
		Check:    check.spec.Name,
		Expr:     check.spec.Expr,
		Document: ctx.Document,
		Duration: time.Since(start),
		Err:      err,
	})

	result := CheckResult{Name: check.spec.Name}
	if err != nil {
		result.Err = err
		result.Message = err.Error()
		return result
	}
	passed, ok := value.(bool)
	if !ok {
		result.Err = fmt.Errorf("rimepatch: check %q returned %T, want bool", check.spec.Name, value)
		result.Message = result.Err.Error()
		return result
	}
	result.Passed = passed
	if !passed {
		result.Message = check.spec.Message
	}
	return result
}

func plainMapping(m *tree.Mapping) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	if out, ok := tree.ToAny(m).(map[string]any); ok {
		return out
	}
	return map[string]any{}
}
