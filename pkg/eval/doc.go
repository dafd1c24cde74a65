// Package eval computes the probability that a DNF formula over independent
// edge variables is satisfied.
//
// Exact enumerates truth assignments and is limited to small variable
// counts. KarpLuby is the Karp-Luby-Madras coverage estimator run under the
// Dagum-Karp-Luby-Ross stopping rule, which certifies that the estimate is
// within a relative error epsilon with probability at least 1-delta.
// Heuristic runs the same trial a fixed number of times chosen from epsilon
// alone; it carries no probabilistic guarantee.
//
// All randomness comes from an explicit Source so seeded runs repeat exactly.
package eval
