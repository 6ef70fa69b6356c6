// Package esyr holds release metadata for the esyr launcher.
package esyr

// Version is the released version of esyr.
const Version = "1.0.0"
