// Package source provides the data sources of a .deb package: single files,
// tar archives, directory trees and literal directory paths.
//
// Every source emits its entries into a [deb.Sink]. Entries can be filtered
// with include and exclude globs, then rewritten by a [PermMapper] before
// they reach the sink.
package source
