// Package curve implements the yield curve domain model: the canonical
// Treasury maturity axis, the dense date-by-maturity rate table, the
// synthetic series generator, and the read-only query projections the
// visualization layers consume (animation snapshots, 3D surface meshes,
// heatmap matrices, and tenor spreads).
//
// A RateTable is immutable after construction. Every query operation is a
// pure projection, so concurrent reads from dashboard requests need no
// locking. Tables may come from the generator or from ingested FRED-style
// observations (see the dataprocessing package); the query layer does not
// care about origin.
package curve
