// Package graph holds the tuple-independent probabilistic graph that
// confidence queries run against.
//
// A Model is a set of nodes and undirected edge variables. Each variable
// exists with its own probability, independently of every other variable,
// and a pair that is not listed has no edge with certainty. Models are
// immutable once built and safe for concurrent readers.
//
// Models are built with a Builder or loaded from an edge-list text file,
// a Parquet file, or a Neo4j query.
package graph
