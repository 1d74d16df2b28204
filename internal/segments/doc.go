// Package segments resolves chapter segment UIDs against candidate source
// files.
//
// A registry is built once per directory of sibling files by probing each
// container for its own segment UID and duration, then reused for every
// linked file in that group. Keys are normalized hex strings; a duplicate UID
// within one directory is a data error, and a file never resolves to itself.
package segments
