// Package filter derives range-filtered views of a types.Dataset.
//
// Above keeps readings strictly greater than a lower bound and Below keeps
// readings strictly smaller than an upper bound; Between applies both.
// Views keep dataset order and share no state with their source.
//
// A dataset whose values all lie within Epsilon of each other cannot be
// range-filtered meaningfully, so every filter returns types.ErrNoVariation
// for it. Apply bundles one operator interaction (alert slider plus the two
// range sliders) and turns that condition into a notice with the full
// dataset instead of an error.
package filter
