// Package filtering narrows a platform listing by title pattern, tag, rating and size.
//
// Filters are read from the query string of GET /platforms/{name}:
//
//   - title, excludeTitle: glob patterns matched against the game title, case-insensitive.
//     '*' matches any run of characters, '?' a single one, '[...]' a class.
//   - tag, excludeTag: exact tags, case-insensitive, matched against genre and platform tags.
//   - minRating: lowest rating kept, 0 to 5.
//   - limit: keep at most this many games after every other filter.
//
// Each parameter may repeat or carry a comma-separated list.
//
// # Filtering Logic
//
// Title and tag filters follow the same precedence rules:
//
//  1. If exclude patterns/tags are specified and match -> exclude (precedence)
//  2. If include patterns/tags are specified and match -> include
//  3. If include patterns/tags are specified but no match -> exclude
//  4. If only exclude patterns/tags specified and no match -> include
//  5. If no filters specified -> include (default behavior)
//
// A game must pass both the title and the tag filter, and meet minRating.
// Filtering never reorders games, so the rating order of the listing holds.
package filtering
