// Package prune cleans the per-cell consensus labeling ("raw") the Shapley
// election produced. Three strategies, mirroring how a curator would work:
//
//   - Rank — score every competing cluster once: rank its stability metrics
//     against all other clusters, average the ranks into a goodness value,
//     and record its win fraction (cells won ÷ home-cluster size). Nothing
//     is relabeled; the goodness table drives later invalidation.
//   - Reassign — treat invalid clusters (too small, low win fraction,
//     curator-flagged) as noise: embed the cells in marker-gene PCA space
//     and hand each invalid cell to the nearest valid cluster centroids by
//     a distance-weighted vote.
//   - Reference — audit every won cluster against a trusted annotation:
//     inside each reference cluster, a won cluster survives when it is
//     mostly contained here, claims a decent share of the reference, or is
//     absolutely large; otherwise its cells fall back to the reference
//     label. Reference groups are processed concurrently.
//
// All strategies write the result into the obs column "pruned" and preserve
// the original row order. Inclusiveness is the shared overlap primitive:
// the two containment fractions of a reference cluster and a query cluster.
package prune
