// Package wikipedia reads the MediaWiki action API: a page's external links,
// its Wikidata item id, and its rendered HTML.
//
// Every call goes through a Fetcher so encyclopedia lookups share the run's
// concurrency budget with rating lookups. A body that does not decode, or
// lacks the expected top-level field, returns ErrMalformed; a missing page
// or property returns ErrNotFound.
package wikipedia
