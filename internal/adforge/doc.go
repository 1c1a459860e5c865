// Package adforge defines the core types and interfaces shared by the
// scraping, creative and job subsystems.
package adforge
