// Package metrics scores how trustworthy each cluster of one annotation is.
//
// For a single annotation key over an expr.Matrix it computes, per cluster:
//
//   - reassign — nearest-centroid self-projection accuracy on pooled marker
//     genes: a stable cluster gets its own cells back.
//   - tfidf10 / tfidf5 — tf-idf exclusivity of the cluster's top marker
//     genes at two depths: a real cell type owns genes others don't.
//   - sccaf — held-out accuracy of a softmax classifier trained on a PCA
//     embedding (SCCAF-style): separable clusters score high.
//   - doublet — mean simulated-doublet neighborhood fraction: clusters made
//     of doublets score high (lower is better; the election negates it).
//
// Clusters of a single cell are excluded before computation and their cells
// receive 0 in the per-cell metric columns. ComputeKey bundles all metrics
// for one key into a Result, the unit the triangulation pipeline fans out
// over annotation keys.
package metrics
