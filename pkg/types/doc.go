// Package types defines the Board and Filesystem interfaces, the version
// manifest, write and read options, and the standard error values for the
// pins versioned-artifact store.
//
// A Board stores named pins. Every write produces a new immutable version
// laid out as {root}/{pin}/{version}/{data file} plus {root}/{pin}/{version}/data.txt.
package types
