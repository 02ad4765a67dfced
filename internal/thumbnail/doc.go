// Package thumbnail renders the 1280x720 YouTube thumbnail with the video
// title drawn over a generated backdrop.
package thumbnail
