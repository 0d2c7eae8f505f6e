// Package arr implements the authenticated v3 HTTP API conventions
// shared by Radarr and Sonarr: X-Api-Key auth, /api/v3 paths, JSON
// bodies, and disk-space reporting. The radarr and sonarr packages
// layer their endpoint names and add-payload defaults on top.
package arr
