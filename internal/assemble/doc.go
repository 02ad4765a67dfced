// Package assemble renders the final vertical video: each b-roll still is
// animated with a Ken Burns motion, the clips are concatenated to cover the
// voiceover, captions are burned in, and a looped music bed is mixed under
// the speech.
package assemble
