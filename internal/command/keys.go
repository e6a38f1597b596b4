package command

// beo4Keys maps Beo4/BeoRemote button names to backend remote-entity
// command strings. Buttons without a sensible mapping are absent and
// produce a logged no-op.
var beo4Keys = map[string]string{
	// Navigation
	"UP":    "up",
	"DOWN":  "down",
	"LEFT":  "left",
	"RIGHT": "right",
	"GO":    "select",
	"BACK":  "back",
	"EXIT":  "back",
	"MENU":  "menu",
	"LIST":  "list",
	"INFO":  "info",
	"GUIDE": "guide",

	// Transport
	"PLAY":   "play",
	"STOP":   "pause",
	"WIND":   "fast_forward",
	"REWIND": "rewind",
	"RECORD": "record",

	// Colour keys
	"GREEN":  "green",
	"YELLOW": "yellow",
	"RED":    "red",
	"BLUE":   "blue",

	// Digits
	"0": "digit_0",
	"1": "digit_1",
	"2": "digit_2",
	"3": "digit_3",
	"4": "digit_4",
	"5": "digit_5",
	"6": "digit_6",
	"7": "digit_7",
	"8": "digit_8",
	"9": "digit_9",
}
