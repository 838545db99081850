package notification

import (
	"log"
	"runtime"
)

const maxPopupLen = 200

// ShowResult displays a transient notification with the extracted text.
func ShowResult(text string) {
	displayText := text
	if len(text) > maxPopupLen {
		displayText = text[:maxPopupLen] + "..."
	}

	if runtime.GOOS == "windows" {
		go func() {
			if err := showWindowsPopup(displayText); err != nil {
				log.Printf("Failed to show notification: %v", err)
			}
		}()
		return
	}

	log.Printf("OCR result: %s", displayText)
}
