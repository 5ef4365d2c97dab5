// Package cellknn provides approximate nearest-neighbor search over
// high-dimensional embeddings (e.g. cell embeddings) with categorical
// attribute aggregation: for each query vector it finds the k nearest
// indexed items and can tally a metadata column over those neighbors,
// returning per-query value counts or majority-vote labels.
//
// The KNN facade fetches an embedding matrix from a source.Source,
// builds an ANN index over it once (graph-based HNSW or a tree-based
// random-projection forest), and answers single, batch and multi-axis
// batch queries:
//
//	src := source.NewMemory()
//	_ = src.SetRows("X_pca", vectors)
//
//	obs := metadata.NewTable(len(vectors))
//	_ = obs.AddColumn("label", labels)
//
//	knn, err := cellknn.New(ctx, src, obs)
//	if err != nil { ... }
//
//	res, err := knn.Query(ctx, query, cellknn.WithObsKey("label"))
//	// res.Labels holds the majority label per query.
//
// The index is immutable once built; concurrent queries are safe.
package cellknn
