// Package dataprocessing ingests FRED-style observation CSV exports and
// assembles them into rate tables. Two layouts are supported: one file per
// series (DATE,VALUE) and a wide sheet with one column per maturity. Gaps
// are forward-filled and the result is resampled to the last observation of
// each month, matching the shape the generator produces.
package dataprocessing
