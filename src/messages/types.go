package messages

import (
	"snip-ocr/src/ocr"
)

// Action is the base interface for all commands posted to the application loop.
type Action interface {
	Type() string
}

// Action type constants for type identification
const (
	TypeNewSnip     = "NewSnip"
	TypePasteImage  = "PasteImage"
	TypeLoadFile    = "LoadFile"
	TypeSetEngine   = "SetEngine"
	TypeExtractText = "ExtractText"
	TypeCopyResult  = "CopyResult"
	TypeQuit        = "Quit"
)

// NewSnip - start a screen region selection and load the cropped capture
type NewSnip struct{}

func (m NewSnip) Type() string { return TypeNewSnip }

// PasteImage - load the current image from the system clipboard
type PasteImage struct{}

func (m PasteImage) Type() string { return TypePasteImage }

// LoadFile - load the current image from a file on disk
type LoadFile struct {
	Path string
}

func (m LoadFile) Type() string { return TypeLoadFile }

// SetEngine - switch the OCR engine used for subsequent extractions
type SetEngine struct {
	Engine ocr.Engine
}

func (m SetEngine) Type() string { return TypeSetEngine }

// ExtractText - run preprocessing and OCR on the current image
type ExtractText struct{}

func (m ExtractText) Type() string { return TypeExtractText }

// CopyResult - copy the last extracted text to the system clipboard
type CopyResult struct{}

func (m CopyResult) Type() string { return TypeCopyResult }

// Quit - shut down the application loop
type Quit struct{}

func (m Quit) Type() string { return TypeQuit }
