// Package loader resolves content modules exactly once and caches them for
// the lifetime of the Loader.
//
// Resolve never blocks. The first call for a module id creates a Handle in
// the Loading state and starts a single fetch; every later call returns the
// same Handle. A Handle moves from Loading to Ready or Failed exactly once
// and never changes again. Failed handles are not retried.
//
//	l := loader.New(loader.Chain{builtins, &loader.DirSource{Root: "site/modules"}})
//	defer l.Close()
//
//	h := l.Resolve("give")
//	select {
//	case <-h.Done():
//	    content, err := h.Result()
//	    ...
//	default:
//	    // still loading, show a placeholder
//	}
//
// Fetches run under the Loader's own context, so a caller that stops waiting
// never cancels the underlying fetch. Close cancels in-flight fetches and is
// the only way a cache generation ends.
package loader
