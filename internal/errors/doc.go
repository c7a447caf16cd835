// Package errors provides structured, actionable error messages for siteshell.
//
// Every error a human operator sees (bootstrap failures, configuration
// problems, CLI misuse) is a *ShellError carrying a stable code, a category,
// a short message and optional detail, suggestion and wrapped cause.
//
// # Error Categories
//
//   - load: a content module could not be fetched
//   - render: a content module failed while rendering
//   - startup: the shell could not be mounted
//   - config: siteshell.yaml / siteshell.json problems
//   - protocol: malformed websocket messages
//   - cli: command-line misuse
//
// # Usage
//
//	err := errors.New("E003").
//	    WithDetail("index.html has no element with id \"root\"").
//	    WithSuggestion("Add <div id=\"root\"></div> to the document body")
//
//	errors.PrintError(err)
//	// ERROR E003: Mount point missing
//	//
//	//   index.html has no element with id "root"
//	//
//	//   Hint: Add <div id="root"></div> to the document body
package errors
