// Package report renders a resolved DICOM dictionary.
//
// Every output starts from a [dictionary.Filtered] model, the part of the
// dictionary reachable from the selected SOP classes:
//
//   - [Summary] prints the filter banner and listings of SOP classes, IODs,
//     modules and attributes as terminal tables
//   - [Tree] prints one SOP class as a tree down to individual attribute
//     elements, with functional groups shown below the functional group
//     sequences
//   - [JSON] writes the normalized [Export] document
//   - [DOT] and [RenderSVG] draw the SOP class, IOD and module graph
//   - [MongoSink] stores the normalized document in MongoDB collections
//     for downstream code generators
//
// Element trees may contain cycles through self-including macros. All
// outputs walk them with [dictionary.Trail], so each output is finite.
package report
