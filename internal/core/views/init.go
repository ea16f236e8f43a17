// Package views registers all dashboard view definitions with the core registry.
// Import this package to ensure all views are registered.
package views

// This file exists to provide a single import point.
// Each view file uses init() to register its view.
