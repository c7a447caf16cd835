// Package routes maps locations to content modules.
//
// A Table is a static, ordered list of exact-path entries followed by exactly
// one fallback entry. Match is a pure function of the table and the path:
// the first entry whose pattern equals the path wins, otherwise the fallback.
// Every path therefore resolves to exactly one entry.
//
//	table, err := routes.NewTable([]routes.RouteEntry{
//	    {Pattern: "/", ModuleID: "home"},
//	    {Pattern: "/give", ModuleID: "give"},
//	    {ModuleID: "not-found", IsFallback: true},
//	})
//	entry := table.Match(routes.ParseLocation("/give#tiers").Path)
//
// Locations are parsed from what the browser reports, including the
// hash-router form "#/give#tiers".
package routes
