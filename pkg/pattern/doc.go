// Package pattern defines the closed catalog of structural patterns that
// confidence queries can ask about, and enumerates their embeddings in a
// graph.
//
// Every kind proposes candidate role bindings and states its canonical
// order. Enumerate alone decides which candidates become embeddings, so the
// ordering, edge-existence and de-duplication rules are the same for every
// kind.
package pattern
