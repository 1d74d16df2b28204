// Package subtitles rewrites Advanced SubStation Alpha scripts so that
// styles from different source files can coexist in one rebuilt container.
//
// Styles are unified in two passes over the part's subtitle scripts. The
// first pass renames every style with a per-file tag and collects the style
// definitions into a shared catalog. The second pass replaces each script's
// local style block with the full catalog, so every part carries every
// style and appended dialogue lines keep resolving.
package subtitles
