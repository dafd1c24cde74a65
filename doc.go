// Package graphconf computes the confidence of structural patterns in
// probabilistic graphs.
//
// A probabilistic graph lists undirected edges that exist independently,
// each with its own probability. The confidence of a pattern such as a
// triangle is the probability that at least one embedding of the pattern is
// present. graphconf computes it exactly for small formulas, or estimates it
// with the Karp-Luby estimator under an (epsilon, delta) guarantee, and
// streams progressively tighter answers.
//
// # Basic Usage
//
//	model, err := graph.ReadEdgeListFile("social.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine := graphconf.NewEngine(model, graphconf.DefaultConfig(), logger)
//
//	q, err := engine.Submit(ctx, graphconf.Submission{
//		Pattern: "triangle",
//		Method:  refine.Approx,
//		Epsilon: 0.05,
//		Delta:   0.05,
//		Refine:  true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer q.Close()
//
//	for step := range q.Steps(ctx) {
//		fmt.Println(step.Epsilon, step.Estimate)
//	}
//
// # Patterns
//
// The catalog is fixed; see pattern.Catalog. Set-valued patterns such as
// degree-at-least answer with one confidence per result key.
//
// # Concurrency
//
// Any number of queries may run against the loaded graph at once. Each query
// holds a shared lock on the graph from Submit until its steps are exhausted
// or Close is called. ReplaceModel waits for in-flight queries and blocks new
// ones while it waits; TryReplaceModel fails with types.ErrGraphBusy instead
// of waiting.
package graphconf
