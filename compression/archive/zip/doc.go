// Package zip provides hardened ZIP archive management functions
//
// This package with hardened controls to protect the caller from various attack
// related to insecure compression management.
//
// CreateDeterministic builds on Create to produce byte-for-byte reproducible
// archives (fixed timestamps, maximum compression) for directories that are
// going to be hashed and authenticated as a single unit.
package zip
