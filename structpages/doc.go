// Package structpages provides a way to define routing using struct tags and methods.
// It integrates with the [http.ServeMux] (or chi through the chirouter package), allowing
// you to quickly build up pages and components without too much boilerplate.
//
// Route fields use the tag format `route:"[METHOD] /path [Title]"`. A path segment that
// starts with an underscore, such as "/_authenticated", declares a pathless group: it
// contributes middlewares and a route ID prefix but no URL segment.
//
// Content that depends on the browser (clock, locale, window size, maps) can be wrapped in
// [ClientOnly]. It renders a fallback first and swaps in the real content once htmx has
// mounted the placeholder, see [Hydrator].
package structpages
