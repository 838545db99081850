package hotkey

import (
	"log"
	"strconv"
	"strings"

	"snip-ocr/src/input"
)

// Listen watches the global input stream for a key combination like
// "Ctrl+Shift+S" and invokes callback each time the full combination is held.
// The callback runs on the listener goroutine; it should hand off to the
// application loop rather than do work itself.
func Listen(hub *input.Hub, combo string, callback func()) {
	keys := parseHotkey(combo)
	log.Printf("Parsed hotkey configuration: %v", keys)

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}

	var keyStates []keyState
	for _, keyName := range keys {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", keyName)
			continue
		}
		keyStates = append(keyStates, keyState{name: keyName, rawcodes: rawcodes})
	}

	if len(keyStates) == 0 {
		log.Printf("ERROR: No valid keys in hotkey configuration '%s'", combo)
		return
	}

	matches := func(state keyState, rawcode uint16) bool {
		for _, rc := range state.rawcodes {
			if rc == rawcode {
				return true
			}
		}
		return false
	}

	_, events := hub.Subscribe()
	go func() {
		for ev := range events {
			switch ev.Kind {
			case input.KeyDown:
				allPressed := true
				for i := range keyStates {
					if matches(keyStates[i], ev.Rawcode) {
						keyStates[i].pressed = true
					}
					if !keyStates[i].pressed {
						allPressed = false
					}
				}
				if allPressed {
					log.Printf("Hotkey %s activated", combo)
					for i := range keyStates {
						keyStates[i].pressed = false
					}
					if callback != nil {
						callback()
					}
				}
			case input.KeyUp:
				for i := range keyStates {
					if matches(keyStates[i], ev.Rawcode) {
						keyStates[i].pressed = false
					}
				}
			}
		}
	}()

	log.Printf("Hotkey listener configured for: %s", combo)
}

// parseHotkey converts a hotkey string like "Ctrl+Shift+s" to normalized key names
func parseHotkey(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

// specialKeyRawcodes maps named keys to their Windows virtual key codes.
// Modifiers list both left and right variants.
var specialKeyRawcodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	if codes, ok := specialKeyRawcodes[keyName]; ok {
		return codes
	}

	// Letters a-z map to VK 65-90, digits 0-9 to VK 48-57.
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}

	// Function keys f1-f24 map to VK 112-135.
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
