// Package music picks a background track for each video and builds the
// ffmpeg sidechain style duck filter that keeps the bed under the voiceover.
package music
