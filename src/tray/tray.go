package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"snip-ocr/src/messages"
	"snip-ocr/src/ocr"
)

// Config controls the tray menu. Post delivers menu actions to the
// application loop; it must be non-blocking.
type Config struct {
	Title   string
	Tooltip string
	Engine  ocr.Engine
	Post    func(a messages.Action) bool
	OnExit  func()
}

var (
	mu    sync.Mutex
	ready bool
)

// Run starts the system tray and blocks until Quit is selected. It must
// be called from the main goroutine on platforms that require it.
func Run(cfg Config) {
	systray.Run(func() { onReady(cfg) }, func() {
		if cfg.OnExit != nil {
			cfg.OnExit()
		}
	})
}

// UpdateTooltip updates the tray tooltip once the tray is running.
func UpdateTooltip(tooltip string) {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		systray.SetTooltip(tooltip)
	}
}

func onReady(cfg Config) {
	if icon := Icon(); len(icon) > 0 {
		systray.SetIcon(icon)
	}

	title := cfg.Title
	if title == "" {
		title = "Snip OCR"
	}
	tooltip := cfg.Tooltip
	if tooltip == "" {
		tooltip = title
	}
	systray.SetTitle(title)
	systray.SetTooltip(tooltip)

	mu.Lock()
	ready = true
	mu.Unlock()

	mSnip := systray.AddMenuItem("New Snip", "Select a screen region to capture")
	mPaste := systray.AddMenuItem("Paste Image", "Load an image from the clipboard")
	mExtract := systray.AddMenuItem("Extract Text", "Run OCR on the current image")
	mCopy := systray.AddMenuItem("Copy Result", "Copy the extracted text to the clipboard")
	systray.AddSeparator()
	mTesseract := systray.AddMenuItemCheckbox("Tesseract", "Use the Tesseract OCR engine", cfg.Engine == ocr.EngineTesseract)
	mEasyOCR := systray.AddMenuItemCheckbox("EasyOCR", "Use the EasyOCR engine", cfg.Engine == ocr.EngineEasyOCR)
	mCloud := systray.AddMenuItemCheckbox("Cloud API", "Use the cloud OCR engine", cfg.Engine == ocr.EngineCloudAPI)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	post := cfg.Post
	if post == nil {
		post = func(messages.Action) bool { return false }
	}

	setEngine := func(engine ocr.Engine) {
		post(messages.SetEngine{Engine: engine})
		mTesseract.Uncheck()
		mEasyOCR.Uncheck()
		mCloud.Uncheck()
		switch engine {
		case ocr.EngineTesseract:
			mTesseract.Check()
		case ocr.EngineEasyOCR:
			mEasyOCR.Check()
		case ocr.EngineCloudAPI:
			mCloud.Check()
		}
	}

	go func() {
		for {
			select {
			case <-mSnip.ClickedCh:
				post(messages.NewSnip{})
			case <-mPaste.ClickedCh:
				post(messages.PasteImage{})
			case <-mExtract.ClickedCh:
				post(messages.ExtractText{})
			case <-mCopy.ClickedCh:
				post(messages.CopyResult{})
			case <-mTesseract.ClickedCh:
				setEngine(ocr.EngineTesseract)
			case <-mEasyOCR.ClickedCh:
				setEngine(ocr.EngineEasyOCR)
			case <-mCloud.ClickedCh:
				setEngine(ocr.EngineCloudAPI)
			case <-mQuit.ClickedCh:
				post(messages.Quit{})
				systray.Quit()
				return
			}
		}
	}()
}
