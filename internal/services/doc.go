// Package services holds the error taxonomy shared by the catalog
// clients and the tracker. Vendor-specific clients live in the radarr
// and sonarr subpackages.
package services
