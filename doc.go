// Package sctri triangulates competing cluster annotations of a single-cell
// expression matrix into one consensus labeling, then prunes it.
//
// 🚀 What is sctri?
//
//	A Go library that takes several cluster annotations of the same cells
//	(different resolutions, different tools, a curated reference) and decides,
//	cell by cell, which annotation to trust:
//		• Stability metrics: reassign score, tf-idf exclusivity, SCCAF-style
//		  classifier accuracy, doublet burden — per cluster, per annotation
//		• Shapley election: each annotation is a player, its metric ranks are
//		  the payoff; every cell adopts the annotation with the largest value
//		• Pruning: rank (cluster goodness + win fraction), reassign (fold
//		  unstable clusters into their nearest stable centroid), reference
//		  (validate won clusters against a trusted annotation)
//
// Under the hood, everything is organized under these subpackages:
//
//	expr/        — dense expression matrix, per-cell metadata frame, PCA
//	metrics/     — per-cluster stability metrics and marker-gene ranking
//	shapley/     — rank statistics, Shapley values, per-cell election
//	prune/       — rank / reassign / reference pruning of the consensus
//	triangulate/ — the pipeline: metrics → shapley → pruning, snapshots
//	config/      — YAML run configuration for the CLI
//	cmd/sctri/   — command-line entry point
//
// Quick sketch:
//
//	leiden1: ┌─A─┬──B──┐     shapley      ┌─A─┬──B──┐
//	leiden2: ├─a─┼─b─┬c┤  ──────────▶     ├─a─┼──B──┤   per-cell winners
//	cells:   └───┴───┴─┘    + pruning     └───┴─────┘
//
// Dive into each package's doc.go for the full contract.
package sctri
