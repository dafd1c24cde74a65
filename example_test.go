package graphconf_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/refine"
)

func ExampleEngine_Submit() {
	model, err := graph.ReadEdgeList(strings.NewReader("1 2 0.5\n2 3 0.5\n1 3 0.5\n"))
	if err != nil {
		panic(err)
	}
	engine := graphconf.NewEngine(model, graphconf.DefaultConfig(), nil)

	ctx := context.Background()
	q, err := engine.Submit(ctx, graphconf.Submission{Pattern: "triangle", Method: refine.Exact})
	if err != nil {
		panic(err)
	}
	defer q.Close()

	for step := range q.Steps(ctx) {
		if step.Estimate != nil {
			fmt.Printf("confidence %.3f\n", step.Estimate.Value)
		} else {
			fmt.Println(step.State)
		}
	}
	// Output:
	// confidence 0.125
	// done
}
