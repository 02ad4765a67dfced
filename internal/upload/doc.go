// Package upload publishes finished videos through the YouTube Data API,
// refreshing OAuth credentials from the configured token file.
package upload
