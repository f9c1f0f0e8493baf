// Package audio loops the alarm sound until the alert is dismissed.
//
// Sounds are RIFF/WAVE files with 16-bit PCM samples. The oto context is
// created once per process from the format of the first sound played.
package audio
