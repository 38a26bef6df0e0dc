// Package compute derives safety information from a types.Dataset.
//
// classify.go maps a single gas level to a Classification using the ordered
// thresholds: above Critical is critical, above Warning is warning, anything
// else (including NaN) is normal. Boundaries are exclusive, so exactly 80 is
// a warning and exactly 60 is normal.
//
// stats.go provides Summarize, the descriptive statistics of a whole dataset
// (count, mean, sample std, min, quartiles, max) together with the breach
// counts against each threshold. Quartiles use linear interpolation between
// closest ranks, matching common spreadsheet and dataframe tooling.
//
// Everything here is a pure function of its arguments and is recomputed on
// every call. Functions that need at least one reading return
// types.ErrEmptyDataset instead of dividing by zero.
package compute
