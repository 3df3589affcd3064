// Package hydrate turns fleet records into built cluster manifests.
//
// The pipeline for one cluster:
//
//   - acquire a fresh workspace directory
//   - merge the shared base tree and the cluster group's overlay tree
//     into it (relative-path union, overlay wins on collision)
//   - render template-marked files (.tmpl) with the cluster's attributes
//     during the merge walk, dropping the markers
//   - run the external build tool inside the merged tree, writing
//     <output>/<layout>/<cluster>.yaml
//   - release the workspace
//
// The Runner drives that pipeline across a selection sequentially. Each
// cluster ends in an Outcome: hydrated, skipped (recoverable problem,
// batch continues), or aborted (batch stops). Nothing from one cluster's
// workspace survives into the next.
package hydrate
