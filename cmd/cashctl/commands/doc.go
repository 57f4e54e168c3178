// Package commands implements the cashctl command tree: catalog inspection
// and import, bundle splits and offline tallies.
package commands
