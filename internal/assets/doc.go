// Package assets handles asset URI schemes and the blobs that accompany a
// card through container builds. Remote fetching is a collaborator the
// builders may optionally invoke; when it is absent or fails, the asset
// degrades to a reference-only entry with a warning instead of aborting the
// conversion.
package assets
