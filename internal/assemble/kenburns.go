package assemble

import "fmt"

// kenBurnsFilter returns the zoompan filter for the frame at the given index.
// Frames cycle through three motions so consecutive clips never share one:
// slow zoom in, lateral pan, slow zoom out.
func kenBurnsFilter(index, frames, width, height, fps int) string {
	switch index % 3 {
	case 0:
		return fmt.Sprintf(
			"zoompan=z='min(zoom+0.0015,1.2)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
			frames, width, height, fps)
	case 1:
		return fmt.Sprintf(
			"zoompan=z=1.1:x='(iw-iw/zoom)*on/%d':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
			frames, frames, width, height, fps)
	default:
		return fmt.Sprintf(
			"zoompan=z='if(eq(on,1),1.2,max(1.0,zoom-0.0015))':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
			frames, width, height, fps)
	}
}
