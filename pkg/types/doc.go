// Package types defines the esyr manifest model, the operation descriptors
// carried in the esyr section of a manifest, launcher configuration, and the
// standard errors shared by the overlay pipeline and the CLI.
package types
