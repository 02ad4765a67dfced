// Command clipforge is the CLI for the topic-to-video pipeline: discovering
// topics, drafting scripts, rendering videos, and publishing them.
package main
