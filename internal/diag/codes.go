package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Configuration
	CfgInfo            Code = 1000
	CfgUnreadable      Code = 1001
	CfgMalformed       Code = 1002
	CfgUnknownSeverity Code = 1003
	CfgUnknownRule     Code = 1004
	CfgEngineVersion   Code = 1005

	// Structural preconditions (fatal per file, surfaced as errors; codes
	// exist so the driver can render them uniformly)
	StructDuplicateFunction Code = 2001
	StructUnknownNode       Code = 2002
	StructMissingTable      Code = 2003
	StructBadDump           Code = 2004

	// Effect discipline
	EffPureDeclaresEffects   Code = 3001 // pure function carries a uses clause
	EffPureCallsImpure       Code = 3002 // pure function reaches an effect
	EffMissingDeclaration    Code = 3003 // effective set exceeds declared set
	EffUnusedDeclaration     Code = 3004 // declared tag never exercised
	EffUndeclaredPropagation Code = 3005 // call site leaks callee effect
	EffPurePropagation       Code = 3006 // pure caller invokes impure callee

	// Result discipline
	ResNoTerminalPath         Code = 4001 // no Ok and no Error path
	ResPropagateOutsideResult Code = 4002 // ? in a non-Result function
	ResPropagateNonResult     Code = 4003 // ? applied to a non-Result value
	ResUnusedResult           Code = 4004 // Result value dropped on the floor
	ResUnreachableAfterOk     Code = 4005 // statements after unconditional Ok
	ResContradictoryGuard     Code = 4006 // guard condition contradicts error text

	// Engine
	EngRuleFailure    Code = 5001
	EngSolverDiverged Code = 5002
	EngTimings        Code = 5003
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	CfgInfo:                   "Configuration information",
	CfgUnreadable:             "Configuration file is unreadable",
	CfgMalformed:              "Configuration file is malformed",
	CfgUnknownSeverity:        "Unknown severity in configuration",
	CfgUnknownRule:            "Unknown rule id in configuration",
	CfgEngineVersion:          "Engine version does not satisfy configuration constraint",
	StructDuplicateFunction:   "Duplicate qualified function name",
	StructUnknownNode:         "Unrecognized AST node kind",
	StructMissingTable:        "Analysis invoked before declaration table was built",
	StructBadDump:             "Malformed AST dump",
	EffPureDeclaresEffects:    "Pure function declares effects",
	EffPureCallsImpure:        "Pure function uses or reaches an effect",
	EffMissingDeclaration:     "Function uses effects missing from its uses clause",
	EffUnusedDeclaration:      "Declared effect is never exercised",
	EffUndeclaredPropagation:  "Call propagates an effect the caller does not declare",
	EffPurePropagation:        "Pure function calls an impure function",
	ResNoTerminalPath:         "Result function has no success or error path",
	ResPropagateOutsideResult: "Error propagation outside a Result-returning function",
	ResPropagateNonResult:     "Error propagation applied to a non-Result expression",
	ResUnusedResult:           "Result value is not consumed",
	ResUnreachableAfterOk:     "Unreachable statements after unconditional Ok return",
	ResContradictoryGuard:     "Guard condition contradicts its error message",
	EngRuleFailure:            "Rule execution failure",
	EngSolverDiverged:         "Effect solver exceeded its iteration bound",
	EngTimings:                "Pipeline timings",
}

// ruleByCode maps every diagnostic code onto the externally visible rule id
// that produced it. Engine and config codes map onto pseudo-rules so the
// renderers never emit an empty ruleId.
var ruleByCode = map[Code]string{
	CfgInfo:                   "config",
	CfgUnreadable:             "config",
	CfgMalformed:              "config",
	CfgUnknownSeverity:        "config",
	CfgUnknownRule:            "config",
	CfgEngineVersion:          "config",
	StructDuplicateFunction:   "structure",
	StructUnknownNode:         "structure",
	StructMissingTable:        "structure",
	StructBadDump:             "structure",
	EffPureDeclaresEffects:    "pure-function-validation",
	EffPureCallsImpure:        "pure-function-validation",
	EffMissingDeclaration:     "effect-completeness",
	EffUnusedDeclaration:      "effect-minimality",
	EffUndeclaredPropagation:  "effect-propagation",
	EffPurePropagation:        "effect-propagation",
	ResNoTerminalPath:         "error-handling",
	ResPropagateOutsideResult: "error-propagation-validation",
	ResPropagateNonResult:     "error-propagation-validation",
	ResUnusedResult:           "unused-results",
	ResUnreachableAfterOk:     "dead-error-paths",
	ResContradictoryGuard:     "dead-error-paths",
	EngRuleFailure:            "engine",
	EngSolverDiverged:         "engine",
	EngTimings:                "engine",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EFF%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ENG%04d", ic)
	}
	return "E0000"
}

// Rule returns the externally visible rule id for the code.
func (c Code) Rule() string {
	if r, ok := ruleByCode[c]; ok {
		return r
	}
	return "unknown"
}

// Category groups codes for reporting: "effects", "results", "config",
// "structure" or "engine".
func (c Code) Category() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return "config"
	case ic >= 2000 && ic < 3000:
		return "structure"
	case ic >= 3000 && ic < 4000:
		return "effects"
	case ic >= 4000 && ic < 5000:
		return "results"
	case ic >= 5000 && ic < 6000:
		return "engine"
	}
	return "unknown"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
