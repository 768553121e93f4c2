// Package staging prunes the local download cache, the staging area payloads
// pass through between download and publish.
package staging
