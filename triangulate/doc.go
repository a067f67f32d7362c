// Package triangulate orchestrates the full clustering-consensus pipeline:
// per-key stability metrics, the per-cell Shapley election of a winning
// annotation, and the pruning passes that clean the result.
//
// The Triangulate value owns the expression matrix, the competing
// annotation keys (query), the trusted annotation (reference) and the
// output directory. Stages run in order:
//
//  1. ComputeMetrics — stability metrics per query key, fanned out over a
//     worker pool; scores land in obs as "metric@key" columns.
//  2. ComputeShapley — per cell, rank the metric payoffs across keys, play
//     the coalition game and take the winning key's cluster as the "raw"
//     consensus label ("key@cluster").
//  3. Pruning — rank, reassign or reference pruning into the "pruned"
//     column, plus the reference→cell-cluster sheet on disk.
//
// LazyRun chains the stages with a gob+zstd snapshot after each expensive
// one, and SalvageRun resumes a crashed run from the latest snapshot.
package triangulate
