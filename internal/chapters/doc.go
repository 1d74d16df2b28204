// Package chapters models the Matroska chapter XML tree.
//
// The tree is parsed into an editable document (editions containing chapter
// atoms), mutated in place during timeline reconstruction, and serialized
// back out as pretty-printed UTF-8 XML with a declared encoding. Segment UID
// markers carry their source format (hex or ascii) as a tag resolved at parse
// time so downstream code never re-detects it.
package chapters
