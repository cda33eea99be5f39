package goxq

import (
	"github.com/sandrolain/goxq/pkg/evaluator"
)

// EvalOption configures the evaluator used by Compile and Evaluate.
type EvalOption = evaluator.EvalOption

// Evaluator options, re-exported for convenience.
var (
	WithCaching        = evaluator.WithCaching
	WithCacheSize      = evaluator.WithCacheSize
	WithCache          = evaluator.WithCache
	WithTimeout        = evaluator.WithTimeout
	WithDebug          = evaluator.WithDebug
	WithLogger         = evaluator.WithLogger
	WithMaxDepth       = evaluator.WithMaxDepth
	WithClock          = evaluator.WithClock
	WithTimezone       = evaluator.WithTimezone
	WithNamespace      = evaluator.WithNamespace
	WithResourceLoader = evaluator.WithResourceLoader
	WithMetrics        = evaluator.WithMetrics
	WithCustomFunction = evaluator.WithCustomFunction
	WithFunctions      = evaluator.WithFunctions
)
