// Package pipeline orchestrates the end-to-end video production sequence:
// acquire topics, compose the narration script, synthesize speech, fetch a
// background image, and mux audio and image into the final video. Stages run
// strictly in order and the first failure aborts the run.
package pipeline
