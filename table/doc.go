// Package table provides the column-oriented Table exchanged between the
// analytics library, the chart renderers and the script sandbox.
//
// A [Table] is an ordered set of named [Column] values sharing one row
// count. Every column has a [Kind] and holds either values of that kind or
// nil for missing cells. Integer and float values mixed in one column are
// promoted to [Float]. Cells are stored in rocketlaunchr/dataframe-go typed
// series; [Table.SortBy] and [Table.Filter] run as dataframe sorts and
// filters over those series.
//
// # Value Semantics
//
// Tables and columns are immutable once built. Operations such as
// [Table.WithColumn], [Table.SortBy] or [Table.Head] return new tables that
// may share unchanged columns with their source. A consumer never observes
// a table changing after it has been handed over.
//
// # Missing Columns
//
// Column lookups that fail return a [*ColumnError] wrapping
// [ErrColumnNotFound]. The message names the missing column and lists the
// available ones so a script author can correct the request:
//
//	Column 'points' not in table. Available: [player_id gameweek total_points]
package table
