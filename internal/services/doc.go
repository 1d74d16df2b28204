// Package services defines the error taxonomy shared by the processing
// pipeline and its external tool collaborators.
//
// Every failure raised while reconstructing one input file is tagged with one
// of the sentinel errors here so the batch driver can classify outcomes
// without string matching. All failures are file-scoped: the batch continues
// with the next input regardless of classification.
package services
