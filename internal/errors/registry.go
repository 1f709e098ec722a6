package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Template Compile Errors (W001-W099)
	// ============================================

	"W001": {
		Category: CategoryCompile,
		Message:  "Unexpected closing tag",
		Detail:   "A closing tag does not match the innermost open element, or there is no open element to close.",
	},
	"W002": {
		Category: CategoryCompile,
		Message:  "Unclosed element",
		Detail:   "The template ended while an element was still open.",
	},
	"W003": {
		Category: CategoryCompile,
		Message:  "Malformed interpolation",
		Detail:   "An interpolation must have the form {{ expression }} with a non-empty expression.",
	},
	"W004": {
		Category: CategoryCompile,
		Message:  "Malformed v-for",
		Detail:   "v-for must have the form \"item in source\" or \"(item, index) in source\".",
	},
	"W005": {
		Category: CategoryCompile,
		Message:  "Invalid expression",
		Detail:   "The expression could not be parsed or uses an unsupported construct.",
	},
	"W006": {
		Category: CategoryCompile,
		Message:  "Malformed tag",
		Detail:   "A start tag, attribute or comment is not terminated.",
	},
	"W007": {
		Category: CategoryCompile,
		Message:  "Invalid template root",
		Detail:   "A template must contain exactly one root element, and the root cannot use v-for.",
	},
	"W008": {
		Category: CategoryCompile,
		Message:  "Unknown directive",
		Detail:   "Only v-if and v-for are supported.",
	},

	// ============================================
	// Runtime Errors (W100-W119)
	// ============================================

	"W100": {
		Category: CategoryRuntime,
		Message:  "Mount target not found",
		Detail:   "The app was mounted on a nil or detached host node.",
	},
	"W101": {
		Category: CategoryRuntime,
		Message:  "Expression evaluation failed",
		Detail:   "A template expression failed while rendering or while handling an event.",
	},
	"W102": {
		Category: CategoryRuntime,
		Message:  "Component has no render source",
		Detail:   "A component needs either a Template or a Render function.",
	},
	"W103": {
		Category: CategoryRuntime,
		Message:  "Event handler failed",
		Detail:   "An event handler or an emitted component event returned an error.",
	},
	"W104": {
		Category: CategoryRuntime,
		Message:  "App already mounted",
		Detail:   "Mount was called on an app that is already mounted.",
	},

	// ============================================
	// Config Errors (W120-W139)
	// ============================================

	"W120": {
		Category: CategoryConfig,
		Message:  "Invalid environment configuration",
		Detail:   "One or more WEAVE_* environment variables could not be parsed.",
	},
	"W121": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},
	"W122": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "weave.json could not be read or is not valid JSON.",
	},

	// ============================================
	// CLI Errors (W140-W159)
	// ============================================

	"W140": {
		Category: CategoryCLI,
		Message:  "Template file not readable",
		Detail:   "The template file does not exist or cannot be read.",
	},
	"W141": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
