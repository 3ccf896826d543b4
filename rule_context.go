package rimepatch

import "time"

// RuleContext carries the inputs a preflight check is evaluated against.
type RuleContext struct {
	// Document is the name of the checked document (default, squirrel, ...).
	Document string
	// Snapshot is the effective document as plain data.
	Snapshot map[string]any
	// Patch is the override patch as plain data, keyed by slash path.
	Patch map[string]any
	Now   *time.Time
	Args  map[string]any
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Engine() string
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Patch == nil {
		ctx.Patch = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) label() string {
	if ctx.Document != "" {
		return ctx.Document
	}
	return "unknown"
}

// bindings returns the variables every engine exposes. Top-level keys of the
// effective document are exposed directly as well as under doc.
func (ctx RuleContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.Snapshot)+5)
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	env["doc"] = ctx.Snapshot
	env["patch"] = ctx.Patch
	env["document"] = ctx.Document
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	return env
}
