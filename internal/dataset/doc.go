// Package dataset provides the file-backed datasets that flow through a
// stage chain.
//
// A dataset is a set of equally sized frames of float64 values plus a kind and
// free-form string metadata. The bytes on disk are a msgpack image of the
// whole dataset. Workers never share a Handle: each worker opens or creates its
// own Handle, and handles for the same path share one in-memory backing file
// held by a Store. The backing file is written to disk when its last handle is
// retired with Complete.
package dataset
