package cellknn_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/cellknn"
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/source"
	"github.com/hupe1980/cellknn/tensor"
)

func Example() {
	ctx := context.Background()

	src := source.NewMemory()
	if err := src.SetRows("X_pca", [][]float32{
		{0, 0},
		{1, 0},
		{0, 1},
		{5, 5},
		{5, 6},
	}); err != nil {
		log.Fatal(err)
	}

	obs := metadata.NewTable(5)
	if err := obs.AddColumn("cell_type", []string{"A", "A", "B", "B", "B"}); err != nil {
		log.Fatal(err)
	}

	knn, err := cellknn.New(ctx, src, obs)
	if err != nil {
		log.Fatal(err)
	}

	res, err := knn.Query(ctx, tensor.FromVector([]float32{5, 5.5}),
		cellknn.WithObsKey("cell_type"),
		cellknn.WithQueryK(3),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Labels.Data()[0])
	// Output:
	// B
}

func Example_counts() {
	ctx := context.Background()

	src := source.NewMemory()
	if err := src.SetRows("X_pca", [][]float32{
		{0, 0},
		{1, 0},
		{0, 1},
		{5, 5},
		{5, 6},
	}); err != nil {
		log.Fatal(err)
	}

	obs := metadata.NewTable(5)
	if err := obs.AddColumn("cell_type", []string{"A", "A", "B", "B", "B"}); err != nil {
		log.Fatal(err)
	}

	knn, err := cellknn.New(ctx, src, obs)
	if err != nil {
		log.Fatal(err)
	}

	res, err := knn.Query(ctx, tensor.FromVector([]float32{0, 0}),
		cellknn.WithObsKey("cell_type"),
		cellknn.WithCounts(),
		cellknn.WithQueryK(3),
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, col := range res.Counts.Columns() {
		fmt.Printf("%s=%d\n", col, res.Counts.At(0, col))
	}
	// Output:
	// A=2
	// B=1
}
