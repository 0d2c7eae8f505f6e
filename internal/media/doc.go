// Package media defines the catalog item model shared by the request
// tracker and the Radarr/Sonarr clients.
//
// CatalogItem is a tagged view over the raw catalog payload: the fields
// the tracker interprets are typed, everything else rides along in an
// open bag so that re-posting an item to the catalog preserves fields
// fetcharr never looks at.
package media
