package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryLoad,
		Message:  "Content module failed to load",
		Detail:   "The module source returned an error or panicked while fetching the module. The failure is cached until the shell is restarted or reloaded.",
	},
	"E002": {
		Category: CategoryRender,
		Message:  "Content module failed to render",
		Detail:   "A mounted content module returned an error or panicked while rendering.",
	},
	"E003": {
		Category:   CategoryStartup,
		Message:    "Mount point missing",
		Detail:     "The host document has no element with the configured mount id, so there is nowhere to mount the shell.",
		Suggestion: "Add <div id=\"root\"></div> to the document body or set document.mount_id",
	},
	"E004": {
		Category:   CategoryLoad,
		Message:    "Content module not found",
		Detail:     "No module source has a module with this id.",
		Suggestion: "Add the module file or fix the module id in the route table",
	},
	"E005": {
		Category:   CategoryStartup,
		Message:    "Host document unreadable",
		Suggestion: "Check document.path in siteshell.yaml",
	},

	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "Invalid message",
		Detail:   "The client sent a websocket message that could not be decoded.",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Navigation rate limited",
		Detail:   "The client sent navigations faster than the configured rate.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that siteshell.yaml is valid YAML (or siteshell.json valid JSON)",
	},
	"E121": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create siteshell.yaml or pass --config",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E123": {
		Category:   CategoryConfig,
		Message:    "Invalid route table",
		Detail:     "The route table needs unique patterns and exactly one fallback module.",
		Suggestion: "Remove duplicate routes and set routes.fallback",
	},
	"E124": {
		Category:   CategoryConfig,
		Message:    "Unknown module source",
		Suggestion: "Set modules.source to one of: dir, s3",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
	"E161": {
		Category: CategoryCLI,
		Message:  "Module check failed",
		Detail:   "At least one routed module could not be loaded.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
