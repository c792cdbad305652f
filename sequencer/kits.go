package sequencer

import "fmt"

// gmDrums names the General MIDI percussion keys (channel 10)
var gmDrums = map[uint8]string{
	35: "Kick 2",
	36: "Kick",
	37: "Rimshot",
	38: "Snare",
	39: "Clap",
	40: "Snare 2",
	41: "Low Tom 2",
	42: "Closed HH",
	43: "Low Tom",
	44: "Pedal HH",
	45: "Mid Tom 2",
	46: "Open HH",
	47: "Mid Tom",
	48: "High Tom 2",
	49: "Crash",
	50: "High Tom",
	51: "Ride",
	52: "China",
	53: "Ride Bell",
	54: "Tambourine",
	55: "Splash",
	56: "Cowbell",
	57: "Crash 2",
	58: "Vibraslap",
	59: "Ride 2",
	60: "High Bongo",
	61: "Low Bongo",
	62: "Mute Conga",
	63: "High Conga",
	64: "Low Conga",
	65: "High Timbale",
	66: "Low Timbale",
	67: "High Agogo",
	68: "Low Agogo",
	69: "Cabasa",
	70: "Maracas",
	71: "Whistle",
	72: "Long Whistle",
	73: "Guiro",
	74: "Long Guiro",
	75: "Clave",
	76: "High Block",
	77: "Low Block",
	78: "Mute Cuica",
	79: "Cuica",
	80: "Mute Triangle",
	81: "Triangle",
}

// DrumName returns the GM name for a drum note, or its number
func DrumName(note uint8) string {
	if name, ok := gmDrums[note]; ok {
		return name
	}
	return fmt.Sprintf("Note %d", note)
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName returns a note name with octave, middle C (60) is C4
func PitchName(note uint8) string {
	return fmt.Sprintf("%s%d", pitchNames[note%12], int(note)/12-1)
}
